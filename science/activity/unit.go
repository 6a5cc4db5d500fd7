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

	"github.com/spatialmodel/beaker/species"
)

// Unit is an ideal solution model: every activity coefficient is 1.
type Unit struct{}

// Evaluate returns 1.
func (Unit) Evaluate(species.Species, float64) float64 { return 1 }

// Name returns "unit".
func (Unit) Name() string { return "unit" }

// Display writes a description of the model to w.
func (Unit) Display(w io.Writer) {
	fmt.Fprintln(w, "  Activity model: unit (all activity coefficients = 1)")
}
