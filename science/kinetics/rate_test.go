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

package kinetics

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/spatialmodel/beaker/species"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func pool(t *testing.T) *species.Registry {
	r, err := species.NewRegistry(
		species.Species{Name: "H+", Charge: 1},
		species.Species{Name: "Ca++", Charge: 2},
		species.Species{Name: "HCO3-", Charge: -1},
	)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func calcite() species.Reaction {
	return species.Reaction{
		Name:          "Calcite",
		Names:         []string{"H+", "Ca++", "HCO3-"},
		Stoichiometry: []float64{-1, 1, 1},
		Log10K:        1.8487,
	}
}

func TestDisplayReaction(t *testing.T) {
	rate, err := New("TST", species.Reaction{
		Name:          "Gibbsite",
		Names:         []string{"H+", "H2O", "Ca++", "HCO3-"},
		Stoichiometry: []float64{-3.125, 3, 1.5, 0.004},
	}, Params{})
	if err != nil {
		t.Fatal(err)
	}
	if err = rate.SetSpeciesIds(pool(t), "primary", nil); err != nil {
		t.Fatal(err)
	}
	r := rate.Base()
	if len(r.Names) != len(r.IDs) || len(r.Stoichiometry) != len(r.IDs) {
		t.Fatalf("names %v, stoichiometry %v and ids %v should be parallel", r.Names, r.Stoichiometry, r.IDs)
	}
	var b bytes.Buffer
	rate.DisplayReaction(&b)
	line := strings.TrimSpace(b.String())
	if want := "Gibbsite = -3.12 H+ + 1.50 Ca++ + 0.00 HCO3-"; line != want {
		t.Errorf("have %q, want %q", line, want)
	}

	parts := strings.Split(line, " = ")
	if len(parts) != 2 || parts[0] != r.Name {
		t.Fatalf("cannot split %q", line)
	}
	terms := strings.Split(parts[1], " + ")
	if len(terms) != len(r.Names) {
		t.Fatalf("have %d terms, want %d", len(terms), len(r.Names))
	}
	for i, term := range terms {
		f := strings.Fields(term)
		if len(f) != 2 {
			t.Fatalf("invalid term %q", term)
		}
		c, err := strconv.ParseFloat(f[0], 64)
		if err != nil {
			t.Fatal(err)
		}
		if f[1] != r.Names[i] {
			t.Errorf("term %d: have name %s, want %s", i, f[1], r.Names[i])
		}
		if math.Abs(c-r.Stoichiometry[i]) > 0.005+1e-12 {
			t.Errorf("term %d: have coefficient %g, want %g", i, c, r.Stoichiometry[i])
		}
	}
}

func TestNew(t *testing.T) {
	for _, law := range []string{"TST", "tst", "expression"} {
		_, err := New(law, calcite(), Params{Expression: "area * (1 - Omega)"})
		if err != nil {
			t.Errorf("%s: %v", law, err)
		}
	}
	_, err := New("monod", calcite(), Params{})
	if !errors.Is(err, ErrUnknownRateLaw) {
		t.Errorf("have error %v, want ErrUnknownRateLaw", err)
	}
	if _, err = New("TST", calcite(), Params{ModifierNames: []string{"H+"}}); err == nil {
		t.Error("mismatched modifiers should be an error")
	}
}

// lnActivities returns ln activities for H+, Ca++ and HCO3- such that
// ln(Q/K) equals lnQK for calcite.
func lnActivities(lnQK float64) []float64 {
	a := []float64{math.Log(1e-7), math.Log(1e-3), 0}
	a[2] = lnQK + 1.8487*math.Ln10 + a[0] - a[1]
	return a
}

func TestTST(t *testing.T) {
	r, err := New("TST", calcite(), Params{
		Log10RateConstant: -9,
		ModifierNames:     []string{"H+"},
		ModifierExponents: []float64{0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err = r.SetSpeciesIds(pool(t), "primary", nil); err != nil {
		t.Fatal(err)
	}
	s := &State{SpecificSurfaceArea: 100, Volume: 2, VolumeFraction: 0.1}

	s.LnActivity = lnActivities(0)
	if rate := r.Rate(s); math.Abs(rate) > 1e-20 {
		t.Errorf("rate at equilibrium should be 0: %g", rate)
	}

	s.LnActivity = lnActivities(math.Log(0.5))
	want := 200 * 1e-9 * math.Sqrt(1e-7) * 0.5
	if rate := r.Rate(s); different(rate, want, 1e-8) {
		t.Errorf("undersaturated: have %g, want %g", rate, want)
	}

	s.LnActivity = lnActivities(math.Log(10))
	if rate := r.Rate(s); rate >= 0 {
		t.Errorf("supersaturated rate should be negative: %g", rate)
	}

	var b bytes.Buffer
	r.Display(&b)
	if !strings.Contains(b.String(), "Calcite = -1.00 H+ + 1.00 Ca++ + 1.00 HCO3-") {
		t.Errorf("display: %s", b.String())
	}
}

func TestExpression(t *testing.T) {
	r, err := New("expression", calcite(), Params{Expression: "area * pow(10, -9) * sqrt(a_H) * (1 - Omega)"})
	if err != nil {
		t.Fatal(err)
	}
	if err = r.SetSpeciesIds(pool(t), "primary", nil); err != nil {
		t.Fatal(err)
	}
	s := &State{SpecificSurfaceArea: 100, Volume: 2, LnActivity: lnActivities(math.Log(0.5))}
	want := 200 * 1e-9 * math.Sqrt(1e-7) * 0.5
	if rate := r.Rate(s); different(rate, want, 1e-8) {
		t.Errorf("have %g, want %g", rate, want)
	}

	bracket, err := NewExpression(calcite(), "-SI * [a_Ca++]")
	if err != nil {
		t.Fatal(err)
	}
	if err = bracket.SetSpeciesIds(pool(t), "primary", nil); err != nil {
		t.Fatal(err)
	}
	want = math.Log10(0.5) * -1e-3
	if rate := bracket.Rate(s); different(rate, want, 1e-8) {
		t.Errorf("bracketed name: have %g, want %g", rate, want)
	}

	bad, err := NewExpression(calcite(), "a_Mg * area")
	if err != nil {
		t.Fatal(err)
	}
	if err = bad.SetSpeciesIds(pool(t), "primary", nil); err == nil {
		t.Error("undefined variable should be an error")
	}
	if _, err = NewExpression(calcite(), "area * ("); err == nil {
		t.Error("malformed expression should be an error")
	}
}

func TestActivityVar(t *testing.T) {
	for name, want := range map[string]string{"H+": "a_H", "HCO3-": "a_HCO3", "Ca++": "a_Ca", "UO2(OH)2": "a_UO2OH2"} {
		if have := ActivityVar(name); have != want {
			t.Errorf("%s: have %s, want %s", name, have, want)
		}
	}
}
