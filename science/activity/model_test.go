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
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/spatialmodel/beaker/species"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

var (
	na  = species.Species{Name: "Na+", Charge: 1, IonSize: 4}
	ca  = species.Species{Name: "Ca++", Charge: 2, IonSize: 6}
	cl  = species.Species{Name: "Cl-", Charge: -1, IonSize: 3}
	hac = species.Species{Name: "HAc", Charge: 0, IonSize: 3}
)

func TestNew(t *testing.T) {
	for _, name := range []string{"unit", "debye-huckel", "davies"} {
		m, err := New(name)
		if err != nil {
			t.Fatal(err)
		}
		if m.Name() != name {
			t.Errorf("have %s, want %s", m.Name(), name)
		}
		var b bytes.Buffer
		m.Display(&b)
		if b.Len() == 0 {
			t.Errorf("%s: empty display", name)
		}
	}
	_, err := New("pitzer")
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("unknown model: have error %v", err)
	}
}

func TestIonicStrength(t *testing.T) {
	// 0.01 mol/kg CaCl2.
	I := IonicStrength([]species.Species{ca, cl}, []float64{0.01, 0.02})
	if different(I, 0.03, 1e-12) {
		t.Errorf("have %g, want 0.03", I)
	}
	I += IonicStrength([]species.Species{hac}, []float64{1})
	if different(I, 0.03, 1e-12) {
		t.Errorf("neutral species changed ionic strength: %g", I)
	}
}

func TestEvaluate(t *testing.T) {
	const I = 0.01
	tests := []struct {
		model Model
		sp    species.Species
		want  float64
	}{
		{model: Unit{}, sp: ca, want: 1},
		{model: DebyeHuckel{}, sp: hac, want: 1},
		{model: Davies{}, sp: hac, want: 1},
		// log10 γ = -0.5114*0.1/(1+0.3288*4*0.1) + 0.041*0.01
		{model: DebyeHuckel{}, sp: na, want: math.Pow(10, -0.05114/1.13152+0.00041)},
		// log10 γ = -0.5114*(0.1/1.1 - 0.003)
		{model: Davies{}, sp: na, want: math.Pow(10, -0.5114*(0.1/1.1-0.003))},
	}
	for _, test := range tests {
		t.Run(test.model.Name()+"_"+test.sp.Name, func(t *testing.T) {
			have := test.model.Evaluate(test.sp, I)
			if different(have, test.want, 1e-10) {
				t.Errorf("have %g, want %g", have, test.want)
			}
		})
	}

	// Divalent ions are corrected more than monovalent ones.
	for _, m := range []Model{DebyeHuckel{}, Davies{}} {
		if m.Evaluate(ca, I) >= m.Evaluate(na, I) {
			t.Errorf("%s: γ(Ca++) should be smaller than γ(Na+)", m.Name())
		}
		if m.Evaluate(na, 0) != 1 {
			t.Errorf("%s: γ should be 1 at zero ionic strength", m.Name())
		}
	}
}
