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

package beakerutil

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// templateSkip lists options that do not belong in a batch
// configuration file.
var templateSkip = map[string]bool{"config": true, "convert": true}

// WriteTemplate writes a batch configuration file to w, listing each
// configuration option with its documentation and default value. Map
// options are written last, because in TOML they are tables.
func WriteTemplate(w io.Writer) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "# Beaker batch configuration file.\n")
	var tables []int
	for i, option := range options {
		if templateSkip[option.name] {
			continue
		}
		switch option.defaultVal.(type) {
		case map[string]string, map[string]float64:
			tables = append(tables, i)
			continue
		}
		if err := writeOption(b, i); err != nil {
			return err
		}
	}
	for _, i := range tables {
		if err := writeOption(b, i); err != nil {
			return err
		}
	}
	return b.Flush()
}

func writeOption(w *bufio.Writer, i int) error {
	option := options[i]
	fmt.Fprintln(w)
	for _, line := range strings.Split(strings.TrimSpace(option.usage), "\n") {
		fmt.Fprintf(w, "# %s\n", strings.TrimSpace(line))
	}
	e := toml.NewEncoder(w)
	if err := e.Encode(map[string]interface{}{option.name: option.defaultVal}); err != nil {
		return fmt.Errorf("beaker: writing template option %s: %v", option.name, err)
	}
	return nil
}
