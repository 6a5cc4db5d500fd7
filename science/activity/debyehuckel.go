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

// Debye-Hückel parameters at 25 °C.
const (
	debyeA    = 0.5114 // kg^0.5 mol^-0.5
	debyeB    = 0.3288 // kg^0.5 mol^-0.5 Å^-1
	debyeBdot = 0.0410
)

// DebyeHuckel is the extended Debye-Hückel (B-dot) model:
//
//	log10 γ = -A z² √I / (1 + B a₀ √I) + Ḃ I
//
// Neutral species have γ = 1.
type DebyeHuckel struct{}

// Evaluate returns the activity coefficient of sp.
func (DebyeHuckel) Evaluate(sp species.Species, I float64) float64 {
	if sp.Charge == 0 || I <= 0 {
		return 1
	}
	sqrtI := math.Sqrt(I)
	log10gamma := -debyeA*sp.Charge*sp.Charge*sqrtI/(1+debyeB*sp.IonSize*sqrtI) + debyeBdot*I
	return math.Pow(10, log10gamma)
}

// Name returns "debye-huckel".
func (DebyeHuckel) Name() string { return "debye-huckel" }

// Display writes a description of the model to w.
func (DebyeHuckel) Display(w io.Writer) {
	fmt.Fprintln(w, "  Activity model: extended Debye-Huckel")
	fmt.Fprintf(w, "    A = %g, B = %g, Bdot = %g\n", debyeA, debyeB, debyeBdot)
}
