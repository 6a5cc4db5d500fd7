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

// Package kinetics implements rate laws for kinetically controlled mineral
// dissolution and precipitation.
//
// Rates are in mol/s for the whole control volume. A positive rate is net
// dissolution of the mineral.
package kinetics

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spatialmodel/beaker/species"
)

// ErrUnknownRateLaw is returned by New for rate law types that are not
// implemented.
var ErrUnknownRateLaw = errors.New("kinetics: unknown rate law")

// State is the speciated chemical state that a rate is evaluated against.
type State struct {
	// LnActivity holds the natural log of the activity of each primary
	// species, indexed by species identifier.
	LnActivity []float64

	// VolumeFraction is the volume fraction of the mineral [m³/m³ bulk].
	VolumeFraction float64

	// SpecificSurfaceArea is the reactive surface area of the mineral
	// per unit bulk volume [m²/m³ bulk].
	SpecificSurfaceArea float64

	// Volume is the bulk volume of the control volume [m³].
	Volume float64
}

// Rate is a kinetic rate law for one mineral.
type Rate interface {
	// Rate returns the reaction rate [mol/s] at state s. Positive values
	// are dissolution. A rate that cannot be evaluated is NaN.
	Rate(s *State) float64

	// SetSpeciesIds resolves the reactant names of the reaction, and of
	// any other species the rate law refers to, against pool.
	SetSpeciesIds(pool *species.Registry, speciesType string, logf species.Logf) error

	// DisplayReaction writes the stoichiometric equation to w.
	DisplayReaction(w io.Writer)

	// Display writes the reaction and rate law parameters to w.
	Display(w io.Writer)

	// Base returns the reaction the rate applies to.
	Base() *species.Reaction
}

// Params holds the rate law parameters read from a database.
type Params struct {
	// Log10RateConstant is the base-10 log of the rate constant
	// [mol/m²/s].
	Log10RateConstant float64

	// ModifierNames and ModifierExponents describe activity terms
	// Π aᵢ^mᵢ that multiply the rate.
	ModifierNames     []string
	ModifierExponents []float64

	// Expression is a rate formula for the "expression" rate law.
	Expression string
}

// New returns the rate law of the given type for reaction r. Rate law
// types are case insensitive; valid options are "TST" and "expression".
func New(rateLaw string, r species.Reaction, p Params) (Rate, error) {
	switch strings.ToLower(strings.TrimSpace(rateLaw)) {
	case "tst":
		return NewTST(r, p)
	case "expression":
		return NewExpression(r, p.Expression)
	default:
		return nil, fmt.Errorf("%w '%s' for mineral %s", ErrUnknownRateLaw, rateLaw, r.Name)
	}
}
