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

package beaker

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spatialmodel/beaker/science/kinetics"
	"github.com/spatialmodel/beaker/species"
)

// AqueousComplex is a secondary aqueous species in equilibrium with the
// primary species:
//
//	complex = Σ νⱼ primaryⱼ
//
// Its Species.ID is its index in Network.Complexes.
type AqueousComplex struct {
	species.Species
	Reaction species.Reaction
}

// Mineral is a solid phase that dissolves into primary species:
//
//	mineral = Σ νⱼ primaryⱼ
type Mineral struct {
	Reaction species.Reaction

	MolarMass   float64 // g/mol
	MolarVolume float64 // cm³/mol

	// SpecificSurfaceArea is the default reactive surface area
	// [m²/m³ bulk], used when Parameters.MineralSpecificSurfaceArea
	// is not set.
	SpecificSurfaceArea float64
}

// Name returns the name of the mineral.
func (m *Mineral) Name() string { return m.Reaction.Name }

// MolarVolumeSI returns the molar volume in m³/mol.
func (m *Mineral) MolarVolumeSI() float64 { return m.MolarVolume * 1.e-6 }

// KineticMineral is a kinetic rate law applied to a mineral.
type KineticMineral struct {
	Mineral int // index in Network.Minerals
	Rate    kinetics.Rate
}

// IonExchangeSite is a cation exchange site, such as X-.
type IonExchangeSite struct {
	Name   string
	Charge float64
}

// IonExchangeComplex is a cation on an exchange site, written as
//
//	complex = ν primary + n site
//
// and described with the Gaines-Thomas convention, where the equivalent
// fraction of the complex on the site is βᵢ = Kᵢ aᵢ y^zᵢ.
type IonExchangeComplex struct {
	// Reaction holds the exchanging cation; the site is held separately.
	Reaction species.Reaction
	SiteName string
	Site     int // index in Network.ExchangeSites

	// K is the selectivity coefficient.
	K float64

	primary int
	charge  float64
}

// Primary returns the identifier of the exchanging cation.
func (c *IonExchangeComplex) Primary() int { return c.primary }

// SurfaceSite is a surface complexation site, such as >FeOH.
type SurfaceSite struct {
	Name   string
	Charge float64
}

// SurfaceComplex is a non-electrostatic surface complex
//
//	complex = site + Σ νⱼ primaryⱼ
//
// that occupies one site.
type SurfaceComplex struct {
	// Reaction holds the primary species; the site is held separately.
	// Reaction.Name is the complex name.
	Reaction species.Reaction
	SiteName string
	Site     int // index in Network.SurfaceSites
	Charge   float64
}

// Isotherm types.
const (
	Linear     = "linear"
	Langmuir   = "langmuir"
	Freundlich = "freundlich"
)

// Isotherm is an equilibrium sorption isotherm for one primary species.
// The sorbed concentration [mol/m³ bulk] as a function of the
// activity a is:
//
//	linear:     S = K a
//	langmuir:   S = K a b / (1 + K a)
//	freundlich: S = K a^n
//
// where b or n is Param.
type Isotherm struct {
	PrimaryName string
	Primary     int
	Type        string
	K           float64
	Param       float64
}

// sorbed returns the sorbed concentration and its derivative with respect
// to ln a.
func (iso *Isotherm) sorbed(a float64) (s, dsdlna float64) {
	switch iso.Type {
	case Linear:
		s = iso.K * a
		return s, s
	case Langmuir:
		s = iso.K * a * iso.Param / (1 + iso.K*a)
		return s, s / (1 + iso.K*a)
	case Freundlich:
		s = iso.K * math.Pow(a, iso.Param)
		return s, iso.Param * s
	}
	return 0, 0
}

// Network is the set of species, equilibrium reactions and kinetic rate
// laws that make up a chemical system. A Network is built once, usually by
// package thermo, and then only read: it may be shared by any number of
// concurrently running Beakers.
type Network struct {
	Primary           *species.Registry
	Complexes         []AqueousComplex
	Minerals          []Mineral
	Kinetics          []KineticMineral
	ExchangeSites     []IonExchangeSite
	ExchangeComplexes []IonExchangeComplex
	SurfaceSites      []SurfaceSite
	SurfaceComplexes  []SurfaceComplex
	Isotherms         []Isotherm
}

// Resolve resolves the species names in every reaction against the
// primary species and sorption sites, and checks the network for
// consistency. It must be called once after the network is assembled.
func (n *Network) Resolve(o *Output) error {
	const op = "network"
	if n.Primary.Len() == 0 {
		return configErrorf(op, "no primary species")
	}
	dbLog := o.Logf(DebugDatabase)
	for i := range n.Complexes {
		c := &n.Complexes[i]
		c.ID = i
		if err := c.Reaction.SetSpeciesIds(n.Primary, "primary", dbLog); err != nil {
			return &ConfigError{Op: op, Err: err}
		}
		if len(c.Reaction.IDs) == 0 {
			return configErrorf(op, "aqueous complex %s has no primary species", c.Name)
		}
	}
	for i := range n.Minerals {
		m := &n.Minerals[i]
		if err := m.Reaction.SetSpeciesIds(n.Primary, "primary", dbLog); err != nil {
			return &ConfigError{Op: op, Err: err}
		}
		if m.MolarVolume <= 0 {
			return configErrorf(op, "mineral %s has molar volume %g; it must be > 0", m.Name(), m.MolarVolume)
		}
	}
	kinLog := o.Logf(DebugMineralKinetics)
	for _, k := range n.Kinetics {
		if k.Mineral < 0 || k.Mineral >= len(n.Minerals) {
			return configErrorf(op, "kinetic rate %s refers to an unknown mineral", k.Rate.Base().Name)
		}
		if err := k.Rate.SetSpeciesIds(n.Primary, "primary", kinLog); err != nil {
			return &ConfigError{Op: op, Err: err}
		}
	}
	for i := range n.ExchangeComplexes {
		c := &n.ExchangeComplexes[i]
		if err := c.resolve(n); err != nil {
			return &ConfigError{Op: op, Err: err}
		}
	}
	for i := range n.SurfaceComplexes {
		c := &n.SurfaceComplexes[i]
		c.Site = -1
		for j, s := range n.SurfaceSites {
			if s.Name == c.SiteName {
				c.Site = j
			}
		}
		if c.Site < 0 {
			return configErrorf(op, "surface complex %s refers to unknown site '%s'", c.Reaction.Name, c.SiteName)
		}
		if err := c.Reaction.SetSpeciesIds(n.Primary, "primary", dbLog); err != nil {
			return &ConfigError{Op: op, Err: err}
		}
	}
	for i := range n.Isotherms {
		iso := &n.Isotherms[i]
		id, ok := n.Primary.Lookup(iso.PrimaryName)
		if !ok {
			return configErrorf(op, "sorption isotherm for unknown primary species '%s'", iso.PrimaryName)
		}
		iso.Primary = id
		switch iso.Type {
		case Linear, Langmuir, Freundlich:
		default:
			return configErrorf(op, "invalid isotherm type '%s' for %s; valid options are %s, %s and %s",
				iso.Type, iso.PrimaryName, Linear, Langmuir, Freundlich)
		}
	}
	return nil
}

func (c *IonExchangeComplex) resolve(n *Network) error {
	c.Site = -1
	for j, s := range n.ExchangeSites {
		if s.Name == c.SiteName {
			c.Site = j
		}
	}
	if c.Site < 0 {
		return fmt.Errorf("ion exchange complex %s refers to unknown site '%s'", c.Reaction.Name, c.SiteName)
	}
	if err := c.Reaction.SetSpeciesIds(n.Primary, "primary", nil); err != nil {
		return err
	}
	if len(c.Reaction.IDs) != 1 {
		return fmt.Errorf("ion exchange complex %s must contain exactly one primary species", c.Reaction.Name)
	}
	c.primary = c.Reaction.IDs[0]
	c.charge = math.Abs(n.Primary.Species(c.primary).Charge)
	if c.charge == 0 {
		return fmt.Errorf("ion exchange complex %s: exchanging species %s is not charged",
			c.Reaction.Name, n.Primary.Species(c.primary).Name)
	}
	if c.K <= 0 {
		return fmt.Errorf("ion exchange complex %s has selectivity coefficient %g; it must be > 0", c.Reaction.Name, c.K)
	}
	return nil
}

// MineralIndex returns the index of the named mineral.
func (n *Network) MineralIndex(name string) (int, bool) {
	for i := range n.Minerals {
		if n.Minerals[i].Name() == name {
			return i, true
		}
	}
	return -1, false
}

// ExchangeSiteIndex returns the index of the named ion exchange site.
func (n *Network) ExchangeSiteIndex(name string) (int, bool) {
	for i, s := range n.ExchangeSites {
		if s.Name == name {
			return i, true
		}
	}
	return -1, false
}

// SurfaceSiteIndex returns the index of the named surface complexation
// site.
func (n *Network) SurfaceSiteIndex(name string) (int, bool) {
	for i, s := range n.SurfaceSites {
		if s.Name == name {
			return i, true
		}
	}
	return -1, false
}

// HasSorption reports whether any sorption reactions are defined.
func (n *Network) HasSorption() bool {
	return len(n.ExchangeComplexes) > 0 || len(n.SurfaceComplexes) > 0 || len(n.Isotherms) > 0
}

// Display writes a description of the network to w.
func (n *Network) Display(w io.Writer) {
	n.Primary.Display(w, "Primary Species")
	if len(n.Complexes) > 0 {
		fmt.Fprintln(w, "---- Aqueous Equilibrium Complexes")
		fmt.Fprintf(w, "    %-40s%12s%10s%10s\n", "Reaction", "log10 K", "Charge", "a0")
		for _, c := range n.Complexes {
			fmt.Fprintf(w, "    %-40s%12.5f%10.2f%10.2f\n", c.Reaction.String(), c.Reaction.Log10K, c.Charge, c.IonSize)
		}
	}
	if len(n.Minerals) > 0 {
		fmt.Fprintln(w, "---- Minerals")
		fmt.Fprintf(w, "    %-40s%12s%12s%12s\n", "Reaction", "log10 K", "GMW", "Vm [cm3]")
		for _, m := range n.Minerals {
			fmt.Fprintf(w, "    %-40s%12.5f%12.5f%12.5f\n", m.Reaction.String(), m.Reaction.Log10K, m.MolarMass, m.MolarVolume)
		}
	}
	if len(n.Kinetics) > 0 {
		fmt.Fprintln(w, "---- Mineral Kinetics")
		for _, k := range n.Kinetics {
			k.Rate.Display(w)
		}
	}
	if len(n.ExchangeSites) > 0 {
		fmt.Fprintln(w, "---- Ion Exchange Sites")
		for _, s := range n.ExchangeSites {
			fmt.Fprintf(w, "    %s (charge %.0f)\n", s.Name, s.Charge)
		}
		for _, c := range n.ExchangeComplexes {
			fmt.Fprintf(w, "    %-40s K = %g\n", c.Reaction.String()+" + "+c.SiteName, c.K)
		}
	}
	if len(n.SurfaceSites) > 0 {
		fmt.Fprintln(w, "---- Surface Complexation")
		for _, s := range n.SurfaceSites {
			fmt.Fprintf(w, "    site %s\n", s.Name)
		}
		for _, c := range n.SurfaceComplexes {
			fmt.Fprintf(w, "    %-40s%12.5f\n", c.Reaction.String()+" + "+c.SiteName, c.Reaction.Log10K)
		}
	}
	if len(n.Isotherms) > 0 {
		fmt.Fprintln(w, "---- Sorption Isotherms")
		for _, iso := range n.Isotherms {
			fmt.Fprintf(w, "    %s: %s K = %g %s\n", iso.PrimaryName, iso.Type, iso.K,
				strings.TrimSpace(isoParam(iso)))
		}
	}
}

func isoParam(iso Isotherm) string {
	switch iso.Type {
	case Langmuir:
		return fmt.Sprintf("b = %g", iso.Param)
	case Freundlich:
		return fmt.Sprintf("n = %g", iso.Param)
	}
	return ""
}
