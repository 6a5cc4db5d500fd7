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
	"fmt"
	"io"
	"math"
	"strings"
)

// Reaction is a reaction written as
//
//	name = Σ νⱼ speciesⱼ
//
// together with its equilibrium constant.
type Reaction struct {
	// Name is the name of the product, e.g. an aqueous complex or a
	// mineral.
	Name string

	// Names and Stoichiometry hold the reactants as written. After
	// SetSpeciesIds they only hold reactants found in the species pool,
	// and are parallel to IDs.
	Names         []string
	Stoichiometry []float64
	IDs           []int

	// Coefficients holds the stoichiometry indexed by species identifier.
	Coefficients []float64

	// Log10K is the base-10 log of the equilibrium constant of the
	// reaction in the direction written.
	Log10K float64
}

// SetSpeciesIds resolves the reactant names against pool. Reactants that
// are not in the pool, such as water, are dropped. A reactant that is
// written more than once is an error.
func (r *Reaction) SetSpeciesIds(pool *Registry, speciesType string, logf Logf) error {
	seen := make(map[string]bool, len(r.Names))
	for _, n := range r.Names {
		if seen[n] {
			return fmt.Errorf("species: reaction %s lists reactant '%s' more than once", r.Name, n)
		}
		seen[n] = true
	}
	ids, coef := pool.Resolve(speciesType, r.Names, r.Stoichiometry, logf)
	r.IDs = ids
	r.Coefficients = coef
	r.Names = make([]string, len(ids))
	r.Stoichiometry = make([]float64, len(ids))
	for i, id := range ids {
		r.Names[i] = pool.Species(id).Name
		r.Stoichiometry[i] = coef[id]
	}
	return nil
}

// DisplayReaction writes the reaction to w as "name = c1 r1 + c2 r2".
func (r *Reaction) DisplayReaction(w io.Writer) {
	fmt.Fprintln(w, r.String())
}

func (r *Reaction) String() string {
	terms := make([]string, len(r.Names))
	for i, n := range r.Names {
		terms[i] = fmt.Sprintf("%.2f %s", r.Stoichiometry[i], n)
	}
	return r.Name + " = " + strings.Join(terms, " + ")
}

// Base returns r.
func (r *Reaction) Base() *Reaction { return r }

// LnQ returns the natural log of the ion activity product of the
// resolved reactants.
func (r *Reaction) LnQ(lnActivity []float64) float64 {
	var lnQ float64
	for i, id := range r.IDs {
		lnQ += r.Stoichiometry[i] * lnActivity[id]
	}
	return lnQ
}

// LnK returns the natural log of the equilibrium constant.
func (r *Reaction) LnK() float64 { return r.Log10K * math.Ln10 }

// LnQK returns ln(Q/K).
func (r *Reaction) LnQK(lnActivity []float64) float64 {
	return r.LnQ(lnActivity) - r.LnK()
}
