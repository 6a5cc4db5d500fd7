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
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spatialmodel/beaker"
	"github.com/spatialmodel/beaker/science/kinetics"
	"github.com/tealeg/xlsx"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// TimeSeries holds the results of a batch simulation at each output
// time.
type TimeSeries struct {
	// Columns holds the column names. The first column is time.
	Columns []string

	// Rows holds one row per output time.
	Rows [][]float64

	timeUnits          string
	secondsPerTimeUnit float64
	primary            []string
	sorption           bool
	outputNames        []string
	batch              *Batch
}

func newTimeSeries(b *Batch) *TimeSeries {
	ts := &TimeSeries{
		timeUnits:          b.TimeUnits,
		secondsPerTimeUnit: b.SecondsPerTimeUnit,
		primary:            b.Network.Primary.Names(),
		sorption:           b.Network.HasSorption(),
		outputNames:        sortedKeys(b.OutputVariables),
		batch:              b,
	}
	ts.Columns = append(ts.Columns, fmt.Sprintf("Time [%s]", b.TimeUnits))
	for _, n := range ts.primary {
		ts.Columns = append(ts.Columns, n)
	}
	if ts.sorption {
		for _, n := range ts.primary {
			ts.Columns = append(ts.Columns, n+"_sorbed")
		}
	}
	for i := range b.Network.Minerals {
		ts.Columns = append(ts.Columns, b.Network.Minerals[i].Name()+"_vf")
	}
	ts.Columns = append(ts.Columns, ts.outputNames...)
	return ts
}

// record adds a row for time t [s], using the most recent solution of
// chem and the state c.
func (ts *TimeSeries) record(t float64, chem *beaker.Beaker, c *beaker.Components) error {
	row := []float64{t / ts.secondsPerTimeUnit}
	row = append(row, c.Total...)
	if ts.sorption {
		row = append(row, c.TotalSorbed...)
	}
	row = append(row, c.Minerals...)
	if len(ts.outputNames) > 0 {
		vars := outputVariables(t, chem, c)
		for _, name := range ts.outputNames {
			v, err := ts.batch.OutputVariables[name].Evaluate(vars)
			if err != nil {
				return fmt.Errorf("beaker: evaluating output variable %s: %v", name, err)
			}
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("beaker: output variable %s evaluates to %v, which is not a number", name, v)
			}
			row = append(row, f)
		}
	}
	ts.Rows = append(ts.Rows, row)
	return nil
}

// outputVariables returns the values of the variables available to
// output expressions.
func outputVariables(t float64, chem *beaker.Beaker, c *beaker.Components) map[string]interface{} {
	net := chem.Network()
	lnA := chem.LnActivity()
	vars := map[string]interface{}{
		"I": chem.IonicStrength(),
		"t": t,
	}
	for i, n := range net.Primary.Names() {
		vars[kinetics.ActivityVar(n)] = math.Exp(lnA[i])
		vars[variable("m", n)] = c.FreeIon[i]
		vars[variable("T", n)] = c.Total[i]
		vars[variable("S", n)] = c.TotalSorbed[i]
	}
	si := chem.SaturationIndices()
	for i := range net.Minerals {
		n := net.Minerals[i].Name()
		vars[variable("vf", n)] = c.Minerals[i]
		vars[variable("SI", n)] = si[i]
	}
	return vars
}

// Column returns the values in the named column.
func (ts *TimeSeries) Column(name string) ([]float64, bool) {
	for j, c := range ts.Columns {
		if c == name {
			o := make([]float64, len(ts.Rows))
			for i, r := range ts.Rows {
				o[i] = r[j]
			}
			return o, true
		}
	}
	return nil, false
}

// write writes the time series to the output files configured in b.
func (ts *TimeSeries) write(b *Batch) error {
	if b.TextOutput != "" {
		if err := ts.writeText(b.TextOutput); err != nil {
			return err
		}
	}
	if b.XLSXOutput != "" {
		if err := ts.writeXLSX(b.XLSXOutput); err != nil {
			return err
		}
	}
	if b.PlotOutput != "" {
		if err := ts.plot(b.PlotOutput); err != nil {
			return err
		}
	}
	return nil
}

// writeText writes the time series as comma-separated text.
func (ts *TimeSeries) writeText(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("beaker: creating text output: %v", err)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# %s\n", strings.Join(ts.Columns, " , "))
	for _, r := range ts.Rows {
		s := make([]string, len(r))
		for i, v := range r {
			s[i] = strconv.FormatFloat(v, 'e', 6, 64)
		}
		fmt.Fprintln(w, strings.Join(s, " , "))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("beaker: writing text output: %v", err)
	}
	return f.Close()
}

// writeXLSX writes the time series to an Excel file.
func (ts *TimeSeries) writeXLSX(path string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Beaker")
	if err != nil {
		return fmt.Errorf("beaker: creating spreadsheet: %v", err)
	}
	header := sheet.AddRow()
	for _, c := range ts.Columns {
		header.AddCell().SetString(c)
	}
	for _, r := range ts.Rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetFloat(v)
		}
	}
	if err := file.Save(path); err != nil {
		return fmt.Errorf("beaker: saving spreadsheet: %v", err)
	}
	return nil
}

// plot plots the total concentration of each primary species over time.
func (ts *TimeSeries) plot(path string) error {
	p := plot.New()
	p.Title.Text = "Total concentrations"
	p.X.Label.Text = ts.Columns[0]
	p.Y.Label.Text = "mol/kg water"
	var lines []interface{}
	for j, n := range ts.primary {
		xy := make(plotter.XYs, len(ts.Rows))
		for i, r := range ts.Rows {
			xy[i].X = r[0]
			xy[i].Y = r[j+1]
		}
		lines = append(lines, n, xy)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return fmt.Errorf("beaker: plotting: %v", err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("beaker: saving plot: %v", err)
	}
	return nil
}
