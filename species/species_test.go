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
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	r, err := NewRegistry(
		Species{Name: "H+", Charge: 1, MolarMass: 1.0079, IonSize: 9},
		Species{Name: "Ca++", Charge: 2, MolarMass: 40.078, IonSize: 6},
		Species{Name: "HCO3-", Charge: -1, MolarMass: 61.0171, IonSize: 4},
	)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRegistry(t *testing.T) {
	r := testRegistry(t)
	if r.Len() != 3 {
		t.Errorf("len: have %d, want 3", r.Len())
	}
	for i, n := range []string{"H+", "Ca++", "HCO3-"} {
		id, ok := r.Lookup(n)
		if !ok || id != i {
			t.Errorf("%s: have id %d (%v), want %d", n, id, ok, i)
		}
		if r.Species(i).ID != i {
			t.Errorf("species %d has id %d", i, r.Species(i).ID)
		}
	}
	if _, err := r.Add(Species{Name: "Ca++"}); err == nil {
		t.Error("duplicate name should be an error")
	}
	if _, err := r.Add(Species{}); err == nil {
		t.Error("empty name should be an error")
	}
	var empty *Registry
	if empty.Len() != 0 {
		t.Error("nil registry should be empty")
	}
}

func TestResolve(t *testing.T) {
	r := testRegistry(t)

	t.Run("reindex", func(t *testing.T) {
		names := []string{"HCO3-", "H2O", "H+", "Ca++"}
		stoich := []float64{1, -1, -1, 1}
		ids, out := r.Resolve("primary", names, stoich, nil)
		if want := []int{2, 0, 1}; !reflect.DeepEqual(ids, want) {
			t.Errorf("ids: have %v, want %v", ids, want)
		}
		if want := []float64{-1, 1, 1}; !reflect.DeepEqual(out, want) {
			t.Errorf("stoichiometry: have %v, want %v", out, want)
		}
	})

	t.Run("no stoichiometry", func(t *testing.T) {
		ids, out := r.Resolve("primary", []string{"Ca++"}, nil, nil)
		if out != nil {
			t.Errorf("stoichiometry should be nil: %v", out)
		}
		if !reflect.DeepEqual(ids, []int{1}) {
			t.Errorf("ids: %v", ids)
		}
	})

	t.Run("misses", func(t *testing.T) {
		var msgs []string
		logf := func(format string, args ...interface{}) {
			msgs = append(msgs, fmt.Sprintf(format, args...))
		}
		ids, out := r.Resolve("sorption site", []string{">FeOH", "X-"}, []float64{1, 2}, logf)
		if len(ids) != 0 {
			t.Errorf("ids should be empty: %v", ids)
		}
		if !reflect.DeepEqual(out, []float64{0, 0, 0}) {
			t.Errorf("stoichiometry should be zero: %v", out)
		}
		if len(msgs) != 2 || !strings.Contains(msgs[0], ">FeOH") || !strings.Contains(msgs[0], "sorption site") {
			t.Errorf("diagnostics: %v", msgs)
		}
	})

	t.Run("matched count", func(t *testing.T) {
		names := []string{"Ca++", "Mg++", "H+", "Cl-", "HCO3-"}
		stoich := []float64{0.5, 3, -2, 7, 1.25}
		ids, out := r.Resolve("primary", names, stoich, nil)
		if len(ids) != 3 {
			t.Fatalf("have %d ids, want 3", len(ids))
		}
		for i, n := range names {
			id, ok := r.Lookup(n)
			if !ok {
				continue
			}
			if out[id] != stoich[i] {
				t.Errorf("%s: have %g, want %g", n, out[id], stoich[i])
			}
		}
	})
}

func TestDisplay(t *testing.T) {
	r := testRegistry(t)
	var b bytes.Buffer
	r.Display(&b, "Primary Species")
	s := b.String()
	for _, n := range r.Names() {
		if !strings.Contains(s, n) {
			t.Errorf("display is missing %s:\n%s", n, s)
		}
	}
}
