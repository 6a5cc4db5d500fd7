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
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
)

func TestOutputLevels(t *testing.T) {
	var b bytes.Buffer
	o := NewOutput(&b)
	o.Printf(Terse, "terse message")
	o.Printf(Verbose, "verbose message")
	o.Printf(DebugNewtonSolver, "newton message")
	o.Printf(Error, "error message")
	s := b.String()
	if !strings.Contains(s, "terse message") || !strings.Contains(s, "error message") {
		t.Errorf("missing messages:\n%s", s)
	}
	if strings.Contains(s, "verbose message") || strings.Contains(s, "newton message") {
		t.Errorf("unexpected messages:\n%s", s)
	}

	if err := o.AddLevel("debug_newton_solver"); err != nil {
		t.Fatal(err)
	}
	if !o.Enabled(DebugNewtonSolver) || o.Enabled(DebugDatabase) {
		t.Error("only the newton solver debug level should be enabled")
	}
	if err := o.AddLevel("debug"); err != nil {
		t.Fatal(err)
	}
	if !o.Enabled(Verbose) || !o.Enabled(Terse) {
		t.Error("debug should enable verbose and terse output")
	}
	if err := o.AddLevel("loud"); err == nil {
		t.Error("invalid level should be an error")
	}
	if err := o.AddLevel("silent"); err != nil {
		t.Fatal(err)
	}
	for l := Silent; l <= Error; l++ {
		if o.Enabled(l) {
			t.Errorf("%v should be disabled", l)
		}
	}
	if err := o.SetLevels("verbose", "debug_database"); err != nil {
		t.Fatal(err)
	}
	if !o.Enabled(Terse) || !o.Enabled(DebugDatabase) || o.Enabled(Debug) {
		t.Error("SetLevels")
	}
}

func TestOutputNil(t *testing.T) {
	var o *Output
	o.Printf(Error, "nothing")
	if o.Enabled(Error) {
		t.Error("nil output should be disabled")
	}
	if o.Logf(Terse) != nil {
		t.Error("nil output should have a nil Logf")
	}
	buf := o.Buffer()
	buf.Printf(Terse, "nothing")
	buf.Flush()
	if err := o.Close(); err != nil {
		t.Error(err)
	}
}

func TestBufferFlush(t *testing.T) {
	var b bytes.Buffer
	o := NewOutput(&b)
	if err := o.AddLevel("verbose"); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	const n = 8
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			buf := o.Buffer()
			for j := 0; j < 3; j++ {
				buf.Printf(Verbose, "cell=%d line=%d", i, j)
			}
			buf.Display(Verbose, func(w io.Writer) { fmt.Fprintf(w, "cell=%d line=3\ncell=%d line=4\n", i, i) })
			buf.Flush()
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 5*n {
		t.Fatalf("have %d lines, want %d:\n%s", len(lines), 5*n, b.String())
	}
	// Lines from one buffer are contiguous.
	for i := 0; i < len(lines); i += 5 {
		var cell int
		if _, err := fmt.Sscanf(lines[i][strings.Index(lines[i], "cell="):], "cell=%d", &cell); err != nil {
			t.Fatal(err)
		}
		for j := 0; j < 5; j++ {
			if !strings.Contains(lines[i+j], fmt.Sprintf("cell=%d line=%d", cell, j)) {
				t.Errorf("line %d: %s", i+j, lines[i+j])
			}
		}
	}
}
