/*
Copyright © 2019 the Beaker authors.
This file is part of Beaker.

Beaker is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Beaker is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Beaker.  If not, see <http://www.gnu.org/licenses/>.
*/

package activity

import (
	"fmt"
	"io"
	"math"

	"github.com/spatialmodel/beaker/species"
)

// Davies is the Davies equation:
//
//	log10 γ = -A z² (√I / (1 + √I) - 0.3 I)
type Davies struct{}

// Evaluate returns the activity coefficient of sp.
func (Davies) Evaluate(sp species.Species, I float64) float64 {
	if sp.Charge == 0 || I <= 0 {
		return 1
	}
	sqrtI := math.Sqrt(I)
	return math.Pow(10, -debyeA*sp.Charge*sp.Charge*(sqrtI/(1+sqrtI)-0.3*I))
}

// Name returns "davies".
func (Davies) Name() string { return "davies" }

// Display writes a description of the model to w.
func (Davies) Display(w io.Writer) {
	fmt.Fprintf(w, "  Activity model: Davies (A = %g)\n", debyeA)
}
