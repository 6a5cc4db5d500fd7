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

package thermo

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spatialmodel/beaker"
)

// Section headers of the simple format. Headers are matched without
// regard to case.
const (
	sectionPrimary           = "primary species"
	sectionComplexes         = "aqueous equilibrium complexes"
	sectionMinerals          = "minerals"
	sectionKinetics          = "mineral kinetics"
	sectionExchangeSites     = "ion exchange sites"
	sectionExchangeComplexes = "ion exchange complexes"
	sectionSurfaceSites      = "surface complex sites"
	sectionSurfaceComplexes  = "surface complexes"
	sectionIsotherms         = "sorption isotherms"
)

// ReadSimple reads a database in the simple text format from r. name
// identifies the input in error messages.
//
// The format is made of sections introduced by lines such as
// "<Primary Species". Within a section each line is one entry, with fields
// separated by ';'. Text after '#' is a comment. Entries are:
//
//	<Primary Species
//	name ; ion size ; charge ; molar mass
//	<Aqueous Equilibrium Complexes
//	name = c1 s1 c2 s2 ... ; log10 K ; ion size ; charge ; molar mass
//	<Minerals
//	name = c1 s1 ... ; log10 K ; molar mass ; molar volume [cm³/mol] [; specific surface area]
//	<Mineral Kinetics
//	mineral ; TST ; log10_rate_constant k [units] [; modifier species exponent ...]
//	mineral ; expression ; formula
//	<Ion Exchange Sites
//	name ; charge
//	<Ion Exchange Complexes
//	name = c1 cation c2 site ; selectivity coefficient
//	<Surface Complex Sites
//	name [; charge]
//	<Surface Complexes
//	name = 1 site c1 s1 ... ; log10 K [; charge]
//	<Sorption Isotherms
//	species ; linear|langmuir|freundlich ; K [; b or n]
func ReadSimple(r io.Reader, name string) (*Database, error) {
	db := new(Database)
	var section string
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		text := s.Text()
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "<") {
			section = strings.ToLower(strings.TrimSpace(text[1:]))
			if !validSection(section) {
				return nil, syntaxError(name, line, "unknown section '%s'", text[1:])
			}
			continue
		}
		if section == "" {
			return nil, syntaxError(name, line, "entry outside of a section")
		}
		f := strings.Split(text, ";")
		for i := range f {
			f[i] = strings.TrimSpace(f[i])
		}
		if err := db.readEntry(section, f); err != nil {
			return nil, syntaxError(name, line, "%v", err)
		}
	}
	if err := s.Err(); err != nil {
		return nil, &beaker.ConfigError{Op: "database", Err: fmt.Errorf("reading %s: %w", name, err)}
	}
	return db, nil
}

func validSection(s string) bool {
	switch s {
	case sectionPrimary, sectionComplexes, sectionMinerals, sectionKinetics,
		sectionExchangeSites, sectionExchangeComplexes, sectionSurfaceSites,
		sectionSurfaceComplexes, sectionIsotherms:
		return true
	}
	return false
}

// syntaxError returns a configuration error wrapping ErrSyntax.
func syntaxError(name string, line int, format string, args ...interface{}) error {
	return &beaker.ConfigError{
		Op:  "database",
		Err: fmt.Errorf("%s:%d: %w: %s", name, line, ErrSyntax, fmt.Sprintf(format, args...)),
	}
}

// fieldReader parses fields in order and records the first error.
type fieldReader struct {
	f   []string
	err error
}

func (r *fieldReader) count(min, max int) bool {
	if r.err == nil && (len(r.f) < min || len(r.f) > max) {
		if min == max {
			r.err = fmt.Errorf("have %d fields, want %d", len(r.f), min)
		} else {
			r.err = fmt.Errorf("have %d fields, want %d to %d", len(r.f), min, max)
		}
	}
	return r.err == nil
}

func (r *fieldReader) float(i int, what string) float64 {
	if r.err != nil {
		return 0
	}
	if i >= len(r.f) {
		return 0
	}
	v, err := strconv.ParseFloat(r.f[i], 64)
	if err != nil {
		r.err = fmt.Errorf("invalid %s '%s'", what, r.f[i])
	}
	return v
}

// reaction splits "name = c1 s1 ..." into the name and the reaction.
func (r *fieldReader) reaction(i int) (name, rxn string) {
	if r.err != nil {
		return "", ""
	}
	parts := strings.SplitN(r.f[i], "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		r.err = fmt.Errorf("'%s' is not a reaction of the form 'name = c1 s1 c2 s2 ...'", r.f[i])
		return "", ""
	}
	name, rxn = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if _, _, err := parseReaction(rxn); err != nil {
		r.err = err
	}
	return name, rxn
}

func (db *Database) readEntry(section string, f []string) error {
	r := &fieldReader{f: f}
	switch section {
	case sectionPrimary:
		if r.count(4, 4) {
			db.Primary = append(db.Primary, Primary{
				Name:      f[0],
				IonSize:   r.float(1, "ion size"),
				Charge:    r.float(2, "charge"),
				MolarMass: r.float(3, "molar mass"),
			})
		}
	case sectionComplexes:
		if r.count(5, 5) {
			n, rxn := r.reaction(0)
			db.Complexes = append(db.Complexes, Complex{
				Name: n, Reaction: rxn,
				Log10K:    r.float(1, "log10 K"),
				IonSize:   r.float(2, "ion size"),
				Charge:    r.float(3, "charge"),
				MolarMass: r.float(4, "molar mass"),
			})
		}
	case sectionMinerals:
		if r.count(4, 5) {
			n, rxn := r.reaction(0)
			db.Minerals = append(db.Minerals, Mineral{
				Name: n, Reaction: rxn,
				Log10K:              r.float(1, "log10 K"),
				MolarMass:           r.float(2, "molar mass"),
				MolarVolume:         r.float(3, "molar volume"),
				SpecificSurfaceArea: r.float(4, "specific surface area"),
			})
		}
	case sectionKinetics:
		if len(f) < 2 {
			return fmt.Errorf("kinetics entry needs at least a mineral and a rate law")
		}
		k, err := readKinetics(f)
		if err != nil {
			return err
		}
		db.Kinetics = append(db.Kinetics, k)
	case sectionExchangeSites:
		if r.count(2, 2) {
			db.ExchangeSites = append(db.ExchangeSites, Site{Name: f[0], Charge: r.float(1, "charge")})
		}
	case sectionExchangeComplexes:
		if r.count(2, 2) {
			n, rxn := r.reaction(0)
			db.ExchangeComplexes = append(db.ExchangeComplexes, ExchangeComplex{
				Name: n, Reaction: rxn, K: r.float(1, "selectivity coefficient"),
			})
		}
	case sectionSurfaceSites:
		if r.count(1, 2) {
			db.SurfaceSites = append(db.SurfaceSites, Site{Name: f[0], Charge: r.float(1, "charge")})
		}
	case sectionSurfaceComplexes:
		if r.count(2, 3) {
			n, rxn := r.reaction(0)
			db.SurfaceComplexes = append(db.SurfaceComplexes, SurfaceComplex{
				Name: n, Reaction: rxn,
				Log10K: r.float(1, "log10 K"),
				Charge: r.float(2, "charge"),
			})
		}
	case sectionIsotherms:
		if r.count(3, 4) {
			db.Isotherms = append(db.Isotherms, Isotherm{
				Species: f[0],
				Type:    strings.ToLower(f[1]),
				K:       r.float(2, "K"),
				Param:   r.float(3, "isotherm parameter"),
			})
		}
	}
	return r.err
}

// readKinetics reads a mineral kinetics entry. Parameters of the TST
// rate law are keyword fields; the rate law name itself is checked when
// the network is built.
func readKinetics(f []string) (Kinetics, error) {
	k := Kinetics{Mineral: f[0], RateLaw: f[1]}
	if strings.EqualFold(f[1], "expression") {
		if len(f) != 3 || f[2] == "" {
			return k, fmt.Errorf("expression rate law for %s needs exactly one formula field", f[0])
		}
		k.Expression = f[2]
		return k, nil
	}
	for _, field := range f[2:] {
		w := strings.Fields(field)
		if len(w) == 0 {
			continue
		}
		switch strings.ToLower(w[0]) {
		case "log10_rate_constant", "rate_constant":
			// Trailing words are units, which are always mol/m²/s.
			if len(w) < 2 {
				return k, fmt.Errorf("missing value for %s", w[0])
			}
			v, err := strconv.ParseFloat(w[1], 64)
			if err != nil {
				return k, fmt.Errorf("invalid rate constant '%s'", w[1])
			}
			if strings.EqualFold(w[0], "rate_constant") {
				if v <= 0 {
					return k, fmt.Errorf("rate constant %g must be > 0", v)
				}
				v = math.Log10(v)
			}
			k.Log10RateConstant = v
		case "modifier":
			if len(w) < 3 || (len(w)-1)%2 != 0 {
				return k, fmt.Errorf("modifier '%s' must be pairs of species names and exponents", field)
			}
			for i := 1; i < len(w); i += 2 {
				e, err := strconv.ParseFloat(w[i+1], 64)
				if err != nil {
					return k, fmt.Errorf("invalid modifier exponent '%s'", w[i+1])
				}
				k.Modifiers = append(k.Modifiers, Modifier{Species: w[i], Exponent: e})
			}
		default:
			return k, fmt.Errorf("unknown rate law parameter '%s'", w[0])
		}
	}
	return k, nil
}

// WriteSimple writes db to w in the simple text format.
func WriteSimple(w io.Writer, db *Database) error {
	b := bufio.NewWriter(w)
	section := func(title string, n int) {
		if n > 0 {
			fmt.Fprintf(b, "<%s\n", title)
		}
	}
	g := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

	section("Primary Species", len(db.Primary))
	for _, p := range db.Primary {
		fmt.Fprintf(b, "%s ; %s ; %s ; %s\n", p.Name, g(p.IonSize), g(p.Charge), g(p.MolarMass))
	}
	section("Aqueous Equilibrium Complexes", len(db.Complexes))
	for _, c := range db.Complexes {
		fmt.Fprintf(b, "%s = %s ; %s ; %s ; %s ; %s\n", c.Name, c.Reaction, g(c.Log10K), g(c.IonSize), g(c.Charge), g(c.MolarMass))
	}
	section("Minerals", len(db.Minerals))
	for _, m := range db.Minerals {
		fmt.Fprintf(b, "%s = %s ; %s ; %s ; %s ; %s\n", m.Name, m.Reaction, g(m.Log10K), g(m.MolarMass), g(m.MolarVolume), g(m.SpecificSurfaceArea))
	}
	section("Mineral Kinetics", len(db.Kinetics))
	for _, k := range db.Kinetics {
		if strings.EqualFold(k.RateLaw, "expression") {
			fmt.Fprintf(b, "%s ; %s ; %s\n", k.Mineral, k.RateLaw, k.Expression)
			continue
		}
		fmt.Fprintf(b, "%s ; %s ; log10_rate_constant %s moles/m^2/sec", k.Mineral, k.RateLaw, g(k.Log10RateConstant))
		for _, m := range k.Modifiers {
			fmt.Fprintf(b, " ; modifier %s %s", m.Species, g(m.Exponent))
		}
		fmt.Fprintln(b)
	}
	section("Ion Exchange Sites", len(db.ExchangeSites))
	for _, s := range db.ExchangeSites {
		fmt.Fprintf(b, "%s ; %s\n", s.Name, g(s.Charge))
	}
	section("Ion Exchange Complexes", len(db.ExchangeComplexes))
	for _, c := range db.ExchangeComplexes {
		fmt.Fprintf(b, "%s = %s ; %s\n", c.Name, c.Reaction, g(c.K))
	}
	section("Surface Complex Sites", len(db.SurfaceSites))
	for _, s := range db.SurfaceSites {
		fmt.Fprintf(b, "%s ; %s\n", s.Name, g(s.Charge))
	}
	section("Surface Complexes", len(db.SurfaceComplexes))
	for _, c := range db.SurfaceComplexes {
		fmt.Fprintf(b, "%s = %s ; %s ; %s\n", c.Name, c.Reaction, g(c.Log10K), g(c.Charge))
	}
	section("Sorption Isotherms", len(db.Isotherms))
	for _, iso := range db.Isotherms {
		fmt.Fprintf(b, "%s ; %s ; %s ; %s\n", iso.Species, iso.Type, g(iso.K), g(iso.Param))
	}
	return b.Flush()
}
