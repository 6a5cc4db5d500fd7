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

// Package species holds named chemical species and resolves the species
// names used in reaction definitions to dense integer identifiers.
//
// Identifiers double as array indices: every concentration or
// stoichiometry vector built against a Registry has one entry per
// species in the registry, indexed by identifier.
package species

import (
	"fmt"
	"io"
)

// Water is the name of the solvent. It is never registered as a primary
// species, so references to it in reactions drop out during resolution.
const Water = "H2O"

// Species is a single chemical species.
type Species struct {
	Name      string
	ID        int     // dense, 0-based identifier
	Charge    float64 // ionic charge
	MolarMass float64 // g/mol
	IonSize   float64 // Debye-Hückel ion size parameter [Å]
}

// Logf receives diagnostic messages. A nil Logf discards them.
type Logf func(format string, args ...interface{})

// Registry is an ordered catalogue of species with unique names.
// Species are added while a reaction network is being built; after that
// a Registry is only read, and it is safe for concurrent use.
type Registry struct {
	species []Species
}

// NewRegistry returns a registry holding the given species, with
// identifiers assigned in order.
func NewRegistry(s ...Species) (*Registry, error) {
	r := new(Registry)
	for _, sp := range s {
		if _, err := r.Add(sp); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add appends s to the registry and returns its identifier, which is
// always the previous registry size. The ID field of s is ignored.
func (r *Registry) Add(s Species) (int, error) {
	if s.Name == "" {
		return -1, fmt.Errorf("species: empty species name")
	}
	if _, ok := r.Lookup(s.Name); ok {
		return -1, fmt.Errorf("species: duplicate species name '%s'", s.Name)
	}
	s.ID = len(r.species)
	r.species = append(r.species, s)
	return s.ID, nil
}

// Len returns the number of species in the registry.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.species)
}

// Species returns the species with identifier id.
func (r *Registry) Species(id int) Species { return r.species[id] }

// Names returns the species names in identifier order.
func (r *Registry) Names() []string {
	o := make([]string, r.Len())
	for i, s := range r.species {
		o[i] = s.Name
	}
	return o
}

// Lookup returns the identifier of the species with the given name.
func (r *Registry) Lookup(name string) (int, bool) {
	if r == nil {
		return -1, false
	}
	for _, s := range r.species {
		if s.Name == name {
			return s.ID, true
		}
	}
	return -1, false
}

// Resolve matches the species names of a reaction, as written in a
// database, against the registry. For each name found, its identifier is
// appended to ids. If stoichiometry is not nil it must be parallel to
// names, and out is returned with one zero-initialized entry per registry
// species, where the coefficient of each matched name is stored at the
// index of its identifier rather than at its position in names.
//
// Names that are not in the registry are skipped; speciesType is only used
// to describe the registry in the diagnostics sent to logf.
func (r *Registry) Resolve(speciesType string, names []string, stoichiometry []float64, logf Logf) (ids []int, out []float64) {
	if stoichiometry != nil && len(stoichiometry) != len(names) {
		panic(fmt.Errorf("species: %d names but %d stoichiometric coefficients", len(names), len(stoichiometry)))
	}
	ids = make([]int, 0, len(names))
	if stoichiometry != nil {
		out = make([]float64, r.Len())
	}
	for i, name := range names {
		id, ok := r.Lookup(name)
		if !ok {
			if logf != nil {
				logf("species: did not find species '%s' in %s species list", name, speciesType)
			}
			continue
		}
		ids = append(ids, id)
		if out != nil {
			out[id] = stoichiometry[i]
		}
		if logf != nil {
			logf("species: found %s species %s", speciesType, name)
		}
	}
	return ids, out
}

// Display writes a table of the species in the registry to w.
func (r *Registry) Display(w io.Writer, title string) {
	fmt.Fprintf(w, "---- %s\n", title)
	fmt.Fprintf(w, "%12s%10s%10s%12s\n", "Name", "Charge", "a0", "GMW")
	for _, s := range r.species {
		fmt.Fprintf(w, "%12s%10.2f%10.2f%12.5f\n", s.Name, s.Charge, s.IonSize, s.MolarMass)
	}
}
