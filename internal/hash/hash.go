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

// Package hash computes cache keys for loaded input files.
package hash

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash"
	"hash/fnv"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Key returns a hash key for the specified objects. Objects that gob
// cannot encode, such as functions or structs without exported fields,
// are hashed from their spew representation instead.
func Key(objects ...interface{}) string {
	h := fnv.New128a()
	for _, o := range objects {
		write(h, o)
	}
	return sum(h)
}

// File returns a hash of the contents of the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	defer f.Close()
	h := fnv.New128a()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: reading %s: %w", path, err)
	}
	return sum(h), nil
}

func write(h hash.Hash, o interface{}) {
	if s, ok := o.(fmt.Stringer); ok {
		io.WriteString(h, s.String())
		return
	}
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(o); err == nil {
		h.Write(b.Bytes())
		return
	}
	printer.Fprintf(h, "%#v", o)
}

func sum(h hash.Hash) string {
	b := h.Sum([]byte{})
	return fmt.Sprintf("%x", b[0:h.Size()])
}
