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

package species

import (
	"math"
	"reflect"
	"testing"
)

func TestReaction(t *testing.T) {
	r := Reaction{
		Name:          "CaHCO3+",
		Names:         []string{"Ca++", "H2O", "HCO3-"},
		Stoichiometry: []float64{1, 2, 1},
		Log10K:        -1.0467,
	}
	if err := r.SetSpeciesIds(testRegistry(t), "primary", nil); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r.Names, []string{"Ca++", "HCO3-"}) || !reflect.DeepEqual(r.IDs, []int{1, 2}) {
		t.Errorf("names %v ids %v", r.Names, r.IDs)
	}
	if !reflect.DeepEqual(r.Coefficients, []float64{0, 1, 1}) {
		t.Errorf("coefficients %v", r.Coefficients)
	}
	if s := r.String(); s != "CaHCO3+ = 1.00 Ca++ + 1.00 HCO3-" {
		t.Errorf("string: %s", s)
	}
	lnA := []float64{math.Log(1e-7), math.Log(1e-3), math.Log(2e-3)}
	want := math.Log(2e-6) + 1.0467*math.Ln10
	if have := r.LnQK(lnA); math.Abs(have-want) > 1e-12 {
		t.Errorf("lnQK: have %g, want %g", have, want)
	}
}

func TestReactionDuplicateReactant(t *testing.T) {
	r := Reaction{
		Name:          "CaCO3(aq)",
		Names:         []string{"Ca++", "HCO3-", "H+", "HCO3-"},
		Stoichiometry: []float64{1, 1, -1, 1},
	}
	if err := r.SetSpeciesIds(testRegistry(t), "primary", nil); err == nil {
		t.Error("a repeated reactant should be an error")
	}
}
