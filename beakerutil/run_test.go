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
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/beaker"
	"github.com/tealeg/xlsx"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func loadTestBatch(t *testing.T) *Batch {
	cfg := viper.New()
	cfg.SetConfigFile("testdata/calcite_batch.toml")
	if err := cfg.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	b, err := LoadBatch(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestRun(t *testing.T) {
	b := loadTestBatch(t)
	dir := t.TempDir()
	b.TextOutput = filepath.Join(dir, "calcite.txt")
	b.XLSXOutput = filepath.Join(dir, "calcite.xlsx")
	b.PlotOutput = filepath.Join(dir, "calcite.png")

	var log bytes.Buffer
	out := beaker.NewOutput(&log)
	ts, err := b.Run(out)
	if err != nil {
		t.Fatalf("%v\n%s", err, log.String())
	}

	// Initial conditions plus one row every 5 of 10 steps.
	if len(ts.Rows) != 3 {
		t.Errorf("have %d rows, want 3", len(ts.Rows))
	}
	times, _ := ts.Column("Time [h]")
	for i, want := range []float64{0, 5, 10} {
		if i < len(times) && different(times[i], want, 1e-12) {
			t.Errorf("time %d: have %g, want %g", i, times[i], want)
		}
	}
	if _, ok := ts.Column("Ca++_sorbed"); !ok {
		t.Errorf("the exchange and surface sites should add sorbed columns: %v", ts.Columns)
	}
	pH, ok := ts.Column("ph")
	if !ok {
		t.Fatalf("missing pH column in %v", ts.Columns)
	}
	for _, v := range pH {
		if v < 5 || v > 9 {
			t.Errorf("pH %g out of range", v)
		}
	}
	if !strings.Contains(log.String(), "Solution") {
		t.Errorf("terse output should contain the speciation results:\n%s", log.String())
	}

	f, err := os.Open(b.TextOutput)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "# Time [h]") {
		t.Errorf("text output:\n%s", strings.Join(lines, "\n"))
	}

	x, err := xlsx.OpenFile(b.XLSXOutput)
	if err != nil {
		t.Fatal(err)
	}
	sheet, ok := x.Sheet["Beaker"]
	if !ok {
		t.Fatal("missing sheet")
	}
	if len(sheet.Rows) != 4 {
		t.Errorf("spreadsheet has %d rows, want 4", len(sheet.Rows))
	}
	if v := sheet.Rows[0].Cells[1].Value; v != "H+" {
		t.Errorf("spreadsheet header: have %s, want H+", v)
	}

	if fi, err := os.Stat(b.PlotOutput); err != nil || fi.Size() == 0 {
		t.Errorf("plot: %v", err)
	}
}

func TestRunSpeciationOnly(t *testing.T) {
	b := loadTestBatch(t)
	b.NumTimeSteps = 0
	ts, err := b.Run(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ts.Rows) != 1 {
		t.Errorf("have %d rows, want 1", len(ts.Rows))
	}
	// The input is not modified.
	ca, _ := b.Network.Primary.Lookup("Ca++")
	if b.Components.Total[ca] != 1e-3 || b.Components.FreeIon != nil {
		t.Errorf("input components changed: %+v", b.Components)
	}
}

func TestStepRetry(t *testing.T) {
	b := loadTestBatch(t)
	b.Parameters.MaxIterations = 1
	b.MaxStepRetries = 2
	var log bytes.Buffer
	out := beaker.NewOutput(&log)
	out.AddLevel("verbose")

	chem := beaker.New(b.Network, out)
	c := cloneComponents(&b.Components)
	if err := chem.Setup(c, b.Parameters); err != nil {
		t.Fatal(err)
	}
	before := cloneComponents(c)
	_, err := b.step(chem, c, out)
	if _, ok := err.(*beaker.NotConvergedError); !ok {
		t.Fatalf("have %v, want a convergence error", err)
	}
	if n := strings.Count(log.String(), "retrying"); n != 2 {
		t.Errorf("have %d retries, want 2:\n%s", n, log.String())
	}
	for i := range c.Total {
		if c.Total[i] != before.Total[i] {
			t.Errorf("failed step changed total %d: %g != %g", i, c.Total[i], before.Total[i])
		}
	}
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	Root.SetOut(&out)
	defer Root.SetOut(nil)

	t.Run("version", func(t *testing.T) {
		out.Reset()
		Root.SetArgs([]string{"version"})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), beaker.Version) {
			t.Errorf("version output: %s", out.String())
		}
	})
	t.Run("template", func(t *testing.T) {
		f := filepath.Join(dir, "template.toml")
		Root.SetArgs([]string{"template", f})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(f); err != nil {
			t.Error(err)
		}
	})
	t.Run("database", func(t *testing.T) {
		out.Reset()
		convert := filepath.Join(dir, "calcite.toml")
		Root.SetArgs([]string{"database", "../thermo/testdata/calcite.dat", "--convert", convert})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out.String(), "Calcite") {
			t.Errorf("database output should list the minerals:\n%s", out.String())
		}
		if _, err := os.Stat(convert); err != nil {
			t.Error(err)
		}
	})
	t.Run("run", func(t *testing.T) {
		text := filepath.Join(dir, "batch.txt")
		Root.SetArgs([]string{"run", "--config", "testdata/calcite_batch.toml", "--TextOutput", text})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(text); err != nil {
			t.Error(err)
		}
	})
}
