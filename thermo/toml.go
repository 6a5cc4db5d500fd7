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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/beaker"
)

// ReadTOML reads a database in TOML format from r. Entries are arrays of
// tables named after the fields of Database, for example:
//
//	[[primary]]
//	name = "H+"
//	ion_size = 9.0
//	charge = 1.0
//	molar_mass = 1.0079
//
//	[[mineral]]
//	name = "Calcite"
//	reaction = "-1.0 H+ 1.0 Ca++ 1.0 HCO3-"
//	log10_k = 1.8487
//	molar_mass = 100.0872
//	molar_volume = 36.934
//
//	[[kinetics]]
//	mineral = "Calcite"
//	rate_law = "TST"
//	log10_rate_constant = -9.0
//	modifier = [{species = "H+", exponent = 0.5}]
//
// Keys that do not correspond to a Database field are errors.
func ReadTOML(r io.Reader, name string) (*Database, error) {
	db := new(Database)
	md, err := toml.NewDecoder(r).Decode(db)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, &beaker.ConfigError{
				Op:  "database",
				Err: fmt.Errorf("%s:%d: %w: %s", name, perr.Position.Line, ErrSyntax, perr.Message),
			}
		}
		return nil, &beaker.ConfigError{Op: "database", Err: fmt.Errorf("%s: %w: %v", name, ErrSyntax, err)}
	}
	if u := md.Undecoded(); len(u) > 0 {
		keys := make([]string, len(u))
		for i, k := range u {
			keys[i] = k.String()
		}
		return nil, &beaker.ConfigError{
			Op:  "database",
			Err: fmt.Errorf("%s: %w: unknown keys %s", name, ErrSyntax, strings.Join(keys, ", ")),
		}
	}
	return db, nil
}

// WriteTOML writes db to w in TOML format.
func WriteTOML(w io.Writer, db *Database) error {
	return toml.NewEncoder(w).Encode(db)
}
