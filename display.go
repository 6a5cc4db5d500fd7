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
)

// DisplayParameters writes the solver parameters to w.
func (b *Beaker) DisplayParameters(w io.Writer) {
	p := b.params
	fmt.Fprintln(w, "---- Parameters")
	fmt.Fprintf(w, "    porosity: %g [-]\n", p.Porosity)
	fmt.Fprintf(w, "    saturation: %g [-]\n", p.Saturation)
	fmt.Fprintf(w, "    volume: %g [m^3]\n", p.Volume)
	fmt.Fprintf(w, "    water density: %g [kg/m^3]\n", p.WaterDensity)
	fmt.Fprintf(w, "    water mass: %g [kg]\n", b.waterMass)
	fmt.Fprintf(w, "    tolerance: %g\n", p.Tolerance)
	fmt.Fprintf(w, "    max iterations: %d\n", p.MaxIterations)
	fmt.Fprintf(w, "    max ln change: %g\n", p.MaxLnChange)
	if b.activity != nil {
		b.activity.Display(w)
	}
}

// DisplayComponents writes the chemical state in c to w.
func (b *Beaker) DisplayComponents(w io.Writer, c *Components) {
	fmt.Fprintln(w, "---- Components")
	fmt.Fprintf(w, "    %-12s%15s%15s%15s\n", "Name", "Total", "Free Ion", "Sorbed")
	for i, sp := range b.primary {
		fmt.Fprintf(w, "    %-12s%15.6e%15.6e%15.6e\n", sp.Name, at(c.Total, i), at(c.FreeIon, i), at(c.TotalSorbed, i))
	}
	for i := range b.net.Minerals {
		fmt.Fprintf(w, "    %-12s%15.6e [volume fraction]\n", b.net.Minerals[i].Name(), at(c.Minerals, i))
	}
	for i, s := range b.net.ExchangeSites {
		fmt.Fprintf(w, "    %-12s%15.6e [eq/m^3 bulk]\n", s.Name, at(c.IonExchangeSites, i))
	}
}

func at(v []float64, i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return math.NaN()
}

// DisplayResults writes the results of the most recent solve to w.
func (b *Beaker) DisplayResults(w io.Writer) {
	fmt.Fprintln(w, "---- Solution")
	fmt.Fprintf(w, "    ionic strength: %.6e [mol/kg water]\n", b.ionicStrength)
	fmt.Fprintf(w, "    %-12s%15s%15s%15s%15s\n", "Primary", "Molality", "Activity Coef", "Total", "Sorbed")
	for j, sp := range b.primary {
		fmt.Fprintf(w, "    %-12s%15.6e%15.6e%15.6e%15.6e\n", sp.Name, b.c[j], b.gamma[j], b.total[j], b.sorbed[j])
	}
	if len(b.complexes) > 0 {
		fmt.Fprintf(w, "    %-12s%15s%15s\n", "Complex", "Molality", "Activity Coef")
		for i, sp := range b.complexes {
			fmt.Fprintf(w, "    %-12s%15.6e%15.6e\n", sp.Name, b.x[i], math.Exp(b.lnGammaX[i]))
		}
	}
	if len(b.net.Minerals) > 0 {
		fmt.Fprintf(w, "    %-12s%15s%15s\n", "Mineral", "SI", "Vol Frac")
		for i, si := range b.SaturationIndices() {
			fmt.Fprintf(w, "    %-12s%15.6f%15.6e\n", b.net.Minerals[i].Name(), si, b.minerals[i])
		}
	}
	if len(b.net.ExchangeComplexes) > 0 {
		fmt.Fprintf(w, "    %-12s%15s%15s\n", "Exchange", "Eq Fraction", "Sorbed")
		for i := range b.net.ExchangeComplexes {
			ex := &b.net.ExchangeComplexes[i]
			fmt.Fprintf(w, "    %-12s%15.6e%15.6e\n", ex.Reaction.Name, b.beta[i], b.beta[i]*b.cec[ex.Site]/ex.charge)
		}
	}
	if len(b.net.SurfaceComplexes) > 0 {
		fmt.Fprintf(w, "    %-12s%15s\n", "Surface", "Conc")
		for i, s := range b.net.SurfaceSites {
			fmt.Fprintf(w, "    %-12s%15.6e\n", s.Name, b.freeSites[i])
		}
		for k := range b.net.SurfaceComplexes {
			fmt.Fprintf(w, "    %-12s%15.6e\n", b.net.SurfaceComplexes[k].Reaction.Name, b.surfaceX[k])
		}
	}
}

// DisplayTotalColumnHeaders writes the header of the time series table
// written by DisplayTotalColumns.
func (b *Beaker) DisplayTotalColumnHeaders(w io.Writer, timeUnits string) {
	fmt.Fprintf(w, "Time [%s]", timeUnits)
	for _, sp := range b.primary {
		fmt.Fprintf(w, ",%s [mol/kg]", sp.Name)
	}
	if b.net.HasSorption() {
		for _, sp := range b.primary {
			fmt.Fprintf(w, ",%s_sorbed [mol/m^3]", sp.Name)
		}
	}
	for i := range b.net.Minerals {
		fmt.Fprintf(w, ",%s_vf [m^3/m^3]", b.net.Minerals[i].Name())
	}
	fmt.Fprintln(w)
}

// DisplayTotalColumns writes one row of the time series table.
func (b *Beaker) DisplayTotalColumns(w io.Writer, t float64, c *Components) {
	fmt.Fprintf(w, "%.6e", t)
	for _, v := range c.Total {
		fmt.Fprintf(w, ",%.6e", v)
	}
	if b.net.HasSorption() {
		for _, v := range c.TotalSorbed {
			fmt.Fprintf(w, ",%.6e", v)
		}
	}
	for _, v := range c.Minerals {
		fmt.Fprintf(w, ",%.6e", v)
	}
	fmt.Fprintln(w)
}
