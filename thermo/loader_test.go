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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spatialmodel/beaker"
)

func copyFile(t *testing.T, src, dst string) {
	b, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, b, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calcite.dat")
	copyFile(t, "testdata/calcite.dat", path)

	ctx := context.Background()
	l := NewLoader(4)

	const n = 8
	nets := make([]*beaker.Network, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			net, err := l.Load(ctx, path, "", nil)
			if err != nil {
				t.Error(err)
			}
			nets[i] = net
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if nets[i] != nets[0] {
			t.Fatalf("load %d returned a different network", i)
		}
	}

	tomlPath := filepath.Join(dir, "calcite.toml")
	copyFile(t, "testdata/calcite.toml", tomlPath)
	tnet, err := l.Load(ctx, tomlPath, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if tnet == nets[0] {
		t.Error("different files should give different networks")
	}

	// Changing the file contents invalidates the cached network.
	copyFile(t, "testdata/calcite.toml", path)
	net, err := l.Load(ctx, path, TOML, nil)
	if err != nil {
		t.Fatal(err)
	}
	if net == nets[0] {
		t.Error("changed file should be read again")
	}

	bad := filepath.Join(dir, "bad.dat")
	if err := os.WriteFile(bad, []byte("<Primary Species\nH+ ; 9.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := l.Load(ctx, bad, "", nil); !errors.Is(err, ErrSyntax) {
			t.Errorf("load %d: have %v, want a syntax error", i, err)
		}
	}
	// Fixing the file releases the cached failure.
	copyFile(t, "testdata/calcite.dat", bad)
	if _, err := l.Load(ctx, bad, "", nil); err != nil {
		t.Errorf("fixed file: %v", err)
	}
	if _, err := l.Load(ctx, filepath.Join(dir, "missing.dat"), "", nil); !errors.Is(err, beaker.ErrConfiguration) {
		t.Errorf("have %v, want a configuration error", err)
	}
	if _, err := l.Load(ctx, path, "xml", nil); !errors.Is(err, beaker.ErrConfiguration) {
		t.Errorf("have %v, want a configuration error", err)
	}
}

func TestLoaderOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calcite.dat")
	copyFile(t, "testdata/calcite.dat", path)
	ctx := context.Background()
	l := NewLoader(4)

	var first, second bytes.Buffer
	o1 := beaker.NewOutput(&first)
	o1.AddLevel("verbose")
	o2 := beaker.NewOutput(&second)
	o2.AddLevel("verbose")
	net1, err := l.Load(ctx, path, "", o1)
	if err != nil {
		t.Fatal(err)
	}
	net2, err := l.Load(ctx, path, "", o2)
	if err != nil {
		t.Fatal(err)
	}
	if net1 != net2 {
		t.Error("the second load should use the cached network")
	}
	if !strings.Contains(first.String(), "reading simple database") {
		t.Errorf("first load should report the read:\n%s", first.String())
	}
	if second.Len() != 0 {
		t.Errorf("cached load should not read the file:\n%s", second.String())
	}

	// The same contents under another name are a separate entry.
	other := filepath.Join(dir, "other.dat")
	copyFile(t, "testdata/calcite.dat", other)
	net3, err := l.Load(ctx, other, "", o2)
	if err != nil {
		t.Fatal(err)
	}
	if net3 == net1 {
		t.Error("different paths should give different networks")
	}
}
