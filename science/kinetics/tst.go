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
	"fmt"
	"io"
	"math"

	"github.com/spatialmodel/beaker/species"
)

// TST is a transition state theory rate law:
//
//	rate = A k Π aᵢ^mᵢ (1 - Q/K)
//
// where A is the reactive surface area [m²], k the rate constant
// [mol/m²/s] and mᵢ the modifier exponents.
type TST struct {
	species.Reaction

	Log10RateConstant float64

	modifierNames     []string
	modifierExponents []float64
	modifierIDs       []int
}

// NewTST returns a TST rate law for r.
func NewTST(r species.Reaction, p Params) (*TST, error) {
	if len(p.ModifierNames) != len(p.ModifierExponents) {
		return nil, fmt.Errorf("kinetics: mineral %s has %d modifier names but %d exponents",
			r.Name, len(p.ModifierNames), len(p.ModifierExponents))
	}
	return &TST{
		Reaction:          r,
		Log10RateConstant: p.Log10RateConstant,
		modifierNames:     p.ModifierNames,
		modifierExponents: p.ModifierExponents,
	}, nil
}

// SetSpeciesIds resolves the reactants and the rate modifiers against pool.
func (t *TST) SetSpeciesIds(pool *species.Registry, speciesType string, logf species.Logf) error {
	if err := t.Reaction.SetSpeciesIds(pool, speciesType, logf); err != nil {
		return err
	}
	ids, exp := pool.Resolve(speciesType, t.modifierNames, t.modifierExponents, logf)
	t.modifierIDs = ids
	t.modifierNames = make([]string, len(ids))
	t.modifierExponents = make([]float64, len(ids))
	for i, id := range ids {
		t.modifierNames[i] = pool.Species(id).Name
		t.modifierExponents[i] = exp[id]
	}
	return nil
}

// Rate returns the dissolution rate [mol/s].
func (t *TST) Rate(s *State) float64 {
	area := s.SpecificSurfaceArea * s.Volume
	lnModifier := 0.
	for i, id := range t.modifierIDs {
		lnModifier += t.modifierExponents[i] * s.LnActivity[id]
	}
	omega := math.Exp(t.LnQK(s.LnActivity))
	k := math.Pow(10, t.Log10RateConstant)
	return area * k * math.Exp(lnModifier) * (1 - omega)
}

// Display writes the reaction and rate parameters to w.
func (t *TST) Display(w io.Writer) {
	fmt.Fprintln(w, "    Rate law: TST")
	fmt.Fprint(w, "      ")
	t.DisplayReaction(w)
	fmt.Fprintf(w, "      log10 K: %.4f\n", t.Log10K)
	fmt.Fprintf(w, "      log10 k: %.4f [mol/m^2/s]\n", t.Log10RateConstant)
	for i, n := range t.modifierNames {
		fmt.Fprintf(w, "      modifier: %s^%.2f\n", n, t.modifierExponents[i])
	}
}
