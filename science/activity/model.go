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

// Package activity implements activity coefficient models for aqueous
// species.
//
// All models are evaluated at 25 °C. Ionic strength is supplied by the
// caller, which computes it once per solver iteration with IonicStrength
// rather than once per species.
package activity

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spatialmodel/beaker/species"
)

// ErrUnknownModel is returned by New when the requested model is not
// available.
var ErrUnknownModel = errors.New("activity: unknown activity model")

// Model computes activity coefficients.
type Model interface {
	// Evaluate returns the dimensionless activity coefficient of sp in
	// a solution with the given ionic strength [mol/kg water].
	Evaluate(sp species.Species, ionicStrength float64) float64

	// Name returns the name the model is selected by.
	Name() string

	// Display writes a description of the model to w.
	Display(w io.Writer)
}

// New returns the activity model with the given name. Valid names are
// "unit", "debye-huckel", and "davies".
func New(name string) (Model, error) {
	allocator, ok := allocators[name]
	if !ok {
		return nil, fmt.Errorf("%w %q; valid options are %v", ErrUnknownModel, name, Names())
	}
	return allocator(), nil
}

// Names returns the names of the available models.
func Names() []string {
	o := make([]string, 0, len(allocators))
	for n := range allocators {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// allocators holds all available models
var allocators = map[string]func() Model{
	"unit":         func() Model { return Unit{} },
	"debye-huckel": func() Model { return DebyeHuckel{} },
	"davies":       func() Model { return Davies{} },
}

// IonicStrength returns the contribution of the given species at the
// given molalities [mol/kg water] to the ionic strength:
// 0.5 Σ mᵢ zᵢ². Contributions of different species groups add.
func IonicStrength(sp []species.Species, molality []float64) float64 {
	var I float64
	for i, s := range sp {
		I += molality[i] * s.Charge * s.Charge
	}
	return 0.5 * I
}
