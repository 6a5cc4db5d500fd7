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

// Package thermo reads thermodynamic databases and builds the reaction
// networks used by package beaker.
//
// Two formats are supported: the section-based "simple" text format and
// TOML. Both are decoded into a Database, which Build turns into a
// resolved *beaker.Network.
package thermo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spatialmodel/beaker"
	"github.com/spatialmodel/beaker/science/kinetics"
	"github.com/spatialmodel/beaker/species"
)

// ErrSyntax is returned for malformed database entries.
var ErrSyntax = errors.New("thermo: syntax error")

// Database formats.
const (
	Simple = "simple"
	TOML   = "toml"
)

// Database holds the entries of a thermodynamic database as written.
// Reactions are stored as strings of coefficient and species name pairs,
// e.g. "-1.0 H+ 1.0 Ca++ 1.0 HCO3-".
type Database struct {
	Primary           []Primary         `toml:"primary"`
	Complexes         []Complex         `toml:"complex"`
	Minerals          []Mineral         `toml:"mineral"`
	Kinetics          []Kinetics        `toml:"kinetics"`
	ExchangeSites     []Site            `toml:"exchange_site"`
	ExchangeComplexes []ExchangeComplex `toml:"exchange_complex"`
	SurfaceSites      []Site            `toml:"surface_site"`
	SurfaceComplexes  []SurfaceComplex  `toml:"surface_complex"`
	Isotherms         []Isotherm        `toml:"isotherm"`
}

// Primary is a primary species entry.
type Primary struct {
	Name      string  `toml:"name"`
	IonSize   float64 `toml:"ion_size"`
	Charge    float64 `toml:"charge"`
	MolarMass float64 `toml:"molar_mass"`
}

// Complex is an aqueous complex entry.
type Complex struct {
	Name      string  `toml:"name"`
	Reaction  string  `toml:"reaction"`
	Log10K    float64 `toml:"log10_k"`
	IonSize   float64 `toml:"ion_size"`
	Charge    float64 `toml:"charge"`
	MolarMass float64 `toml:"molar_mass"`
}

// Mineral is a mineral entry.
type Mineral struct {
	Name                string  `toml:"name"`
	Reaction            string  `toml:"reaction"`
	Log10K              float64 `toml:"log10_k"`
	MolarMass           float64 `toml:"molar_mass"`
	MolarVolume         float64 `toml:"molar_volume"` // cm³/mol
	SpecificSurfaceArea float64 `toml:"specific_surface_area,omitempty"`
}

// Kinetics is a mineral rate law entry.
type Kinetics struct {
	Mineral           string     `toml:"mineral"`
	RateLaw           string     `toml:"rate_law"`
	Log10RateConstant float64    `toml:"log10_rate_constant,omitempty"`
	Modifiers         []Modifier `toml:"modifier,omitempty"`
	Expression        string     `toml:"expression,omitempty"`
}

// Modifier is an activity term a^Exponent in a TST rate.
type Modifier struct {
	Species  string  `toml:"species"`
	Exponent float64 `toml:"exponent"`
}

// Site is an ion exchange or surface complexation site entry.
type Site struct {
	Name   string  `toml:"name"`
	Charge float64 `toml:"charge"`
}

// ExchangeComplex is an ion exchange complex entry. The reaction includes
// the exchange site.
type ExchangeComplex struct {
	Name     string  `toml:"name"`
	Reaction string  `toml:"reaction"`
	K        float64 `toml:"k"`
}

// SurfaceComplex is a surface complex entry. The reaction includes the
// surface site.
type SurfaceComplex struct {
	Name     string  `toml:"name"`
	Reaction string  `toml:"reaction"`
	Log10K   float64 `toml:"log10_k"`
	Charge   float64 `toml:"charge"`
}

// Isotherm is a sorption isotherm entry.
type Isotherm struct {
	Species string  `toml:"species"`
	Type    string  `toml:"type"`
	K       float64 `toml:"k"`
	Param   float64 `toml:"param,omitempty"`
}

// parseReaction parses "c1 s1 c2 s2 ..." into species names and
// coefficients.
func parseReaction(s string) (names []string, coef []float64, err error) {
	f := strings.Fields(s)
	if len(f) == 0 || len(f)%2 != 0 {
		return nil, nil, fmt.Errorf("reaction '%s' must be pairs of coefficients and species names", s)
	}
	for i := 0; i < len(f); i += 2 {
		c, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid coefficient '%s' in reaction '%s'", f[i], s)
		}
		coef = append(coef, c)
		names = append(names, f[i+1])
	}
	return names, coef, nil
}

func reaction(name, rxn string, log10K float64) (species.Reaction, error) {
	names, coef, err := parseReaction(rxn)
	if err != nil {
		return species.Reaction{}, fmt.Errorf("%s: %w: %v", name, ErrSyntax, err)
	}
	return species.Reaction{Name: name, Names: names, Stoichiometry: coef, Log10K: log10K}, nil
}

// splitSite removes the single reactant named in sites from r and returns
// its name and coefficient.
func splitSite(r *species.Reaction, sites []Site) (string, float64, error) {
	var site string
	var coef float64
	var names []string
	var stoich []float64
	for i, n := range r.Names {
		found := false
		for _, s := range sites {
			if s.Name == n {
				found = true
			}
		}
		if !found {
			names = append(names, n)
			stoich = append(stoich, r.Stoichiometry[i])
			continue
		}
		if site != "" {
			return "", 0, fmt.Errorf("%s refers to more than one site", r.Name)
		}
		site, coef = n, r.Stoichiometry[i]
	}
	if site == "" {
		return "", 0, fmt.Errorf("%s does not refer to a known site", r.Name)
	}
	r.Names, r.Stoichiometry = names, stoich
	return site, coef, nil
}

// Build assembles and resolves the reaction network described by db.
// All errors are *beaker.ConfigError values.
func Build(db *Database, o *beaker.Output) (*beaker.Network, error) {
	const op = "database"
	cfgErr := func(err error) error { return &beaker.ConfigError{Op: op, Err: err} }

	net := &beaker.Network{Primary: new(species.Registry)}
	for _, p := range db.Primary {
		if p.Name == species.Water {
			o.Printf(beaker.DebugDatabase, "thermo: skipping primary species %s", p.Name)
			continue
		}
		if _, err := net.Primary.Add(species.Species{
			Name: p.Name, Charge: p.Charge, MolarMass: p.MolarMass, IonSize: p.IonSize,
		}); err != nil {
			return nil, cfgErr(err)
		}
	}
	for _, c := range db.Complexes {
		r, err := reaction(c.Name, c.Reaction, c.Log10K)
		if err != nil {
			return nil, cfgErr(err)
		}
		net.Complexes = append(net.Complexes, beaker.AqueousComplex{
			Species: species.Species{
				Name: c.Name, Charge: c.Charge, MolarMass: c.MolarMass, IonSize: c.IonSize,
			},
			Reaction: r,
		})
	}
	for _, m := range db.Minerals {
		r, err := reaction(m.Name, m.Reaction, m.Log10K)
		if err != nil {
			return nil, cfgErr(err)
		}
		net.Minerals = append(net.Minerals, beaker.Mineral{
			Reaction:            r,
			MolarMass:           m.MolarMass,
			MolarVolume:         m.MolarVolume,
			SpecificSurfaceArea: m.SpecificSurfaceArea,
		})
	}
	for _, k := range db.Kinetics {
		i, ok := net.MineralIndex(k.Mineral)
		if !ok {
			return nil, cfgErr(fmt.Errorf("rate law for unknown mineral '%s'", k.Mineral))
		}
		r := net.Minerals[i].Reaction
		r.Names = append([]string(nil), r.Names...)
		r.Stoichiometry = append([]float64(nil), r.Stoichiometry...)
		p := kinetics.Params{
			Log10RateConstant: k.Log10RateConstant,
			Expression:        k.Expression,
		}
		for _, m := range k.Modifiers {
			p.ModifierNames = append(p.ModifierNames, m.Species)
			p.ModifierExponents = append(p.ModifierExponents, m.Exponent)
		}
		rate, err := kinetics.New(k.RateLaw, r, p)
		if err != nil {
			return nil, cfgErr(err)
		}
		net.Kinetics = append(net.Kinetics, beaker.KineticMineral{Mineral: i, Rate: rate})
	}
	for _, s := range db.ExchangeSites {
		net.ExchangeSites = append(net.ExchangeSites, beaker.IonExchangeSite{Name: s.Name, Charge: s.Charge})
	}
	for _, c := range db.ExchangeComplexes {
		r, err := reaction(c.Name, c.Reaction, 0)
		if err != nil {
			return nil, cfgErr(err)
		}
		site, _, err := splitSite(&r, db.ExchangeSites)
		if err != nil {
			return nil, cfgErr(fmt.Errorf("ion exchange complex %w", err))
		}
		net.ExchangeComplexes = append(net.ExchangeComplexes, beaker.IonExchangeComplex{
			Reaction: r, SiteName: site, K: c.K,
		})
	}
	for _, s := range db.SurfaceSites {
		net.SurfaceSites = append(net.SurfaceSites, beaker.SurfaceSite{Name: s.Name, Charge: s.Charge})
	}
	for _, c := range db.SurfaceComplexes {
		r, err := reaction(c.Name, c.Reaction, c.Log10K)
		if err != nil {
			return nil, cfgErr(err)
		}
		site, coef, err := splitSite(&r, db.SurfaceSites)
		if err != nil {
			return nil, cfgErr(fmt.Errorf("surface complex %w", err))
		}
		if coef != 1 {
			return nil, cfgErr(fmt.Errorf("surface complex %s must occupy exactly one site; it has %g", c.Name, coef))
		}
		net.SurfaceComplexes = append(net.SurfaceComplexes, beaker.SurfaceComplex{
			Reaction: r, SiteName: site, Charge: c.Charge,
		})
	}
	for _, iso := range db.Isotherms {
		net.Isotherms = append(net.Isotherms, beaker.Isotherm{
			PrimaryName: iso.Species,
			Type:        strings.ToLower(iso.Type),
			K:           iso.K,
			Param:       iso.Param,
		})
	}
	if err := net.Resolve(o); err != nil {
		return nil, err
	}
	if o.Enabled(beaker.DebugDatabase) {
		net.Display(o.Writer(beaker.DebugDatabase))
	}
	return net, nil
}
