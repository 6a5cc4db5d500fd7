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
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/spatialmodel/beaker"
)

// Run speciates the initial solution, advances the kinetic reactions
// for the configured number of time steps, and speciates the final
// solution. Results are written to out and to any configured output
// files. It returns the recorded time series.
func (b *Batch) Run(out *beaker.Output) (*TimeSeries, error) {
	c := cloneComponents(&b.Components)
	chem := beaker.New(b.Network, out)
	if err := chem.Setup(c, b.Parameters); err != nil {
		return nil, err
	}
	if out.Enabled(beaker.Verbose) {
		w := out.Writer(beaker.Verbose)
		b.Network.Display(w)
		chem.DisplayParameters(w)
		chem.DisplayComponents(w, c)
	}

	// Solve for the free-ion concentrations.
	status, err := chem.Speciate(c, b.Parameters)
	if err != nil {
		return nil, err
	}
	if !status.Converged {
		return nil, &beaker.NotConvergedError{Status: status}
	}
	chem.CopyBeakerToComponents(c)
	if out.Enabled(beaker.Terse) {
		chem.DisplayResults(out.Writer(beaker.Terse))
	}

	ts := newTimeSeries(b)
	if err := ts.record(0, chem, c); err != nil {
		return nil, err
	}
	if b.NumTimeSteps == 0 {
		return ts, ts.write(b)
	}
	out.Printf(beaker.Verbose, "-- Reaction Stepping -------------------------------------")
	columns := out.Writer(beaker.Terse)
	chem.DisplayTotalColumnHeaders(columns, b.TimeUnits)
	chem.DisplayTotalColumns(columns, 0, c)
	for step := 0; step < b.NumTimeSteps; step++ {
		status, err := b.step(chem, c, out)
		if err != nil {
			return nil, fmt.Errorf("beaker: time step %d: %w", step, err)
		}
		if (step+1)%b.OutputInterval == 0 {
			t := float64(step+1) * b.DeltaTime
			chem.DisplayTotalColumns(columns, t/b.SecondsPerTimeUnit, c)
			if err := ts.record(t, chem, c); err != nil {
				return nil, err
			}
		}
		out.Printf(beaker.DebugBeaker, "Timestep: %d: %v", step, status)
	}
	out.Printf(beaker.Verbose, "---- Final Speciation")
	status, err = chem.Speciate(c, b.Parameters)
	if err != nil {
		return nil, err
	}
	if !status.Converged {
		return nil, &beaker.NotConvergedError{Status: status}
	}
	if out.Enabled(beaker.Terse) {
		chem.DisplayResults(out.Writer(beaker.Terse))
	}
	return ts, ts.write(b)
}

// step advances c by one time step. If the solver does not converge, the
// step is retried up to MaxStepRetries times, doubling the number of
// sub-steps each time.
func (b *Batch) step(chem *beaker.Beaker, c *beaker.Components, out *beaker.Output) (beaker.SolverStatus, error) {
	start := cloneComponents(c)
	substeps := 1
	var status beaker.SolverStatus
	op := func() error {
		restoreComponents(c, start)
		dt := b.DeltaTime / float64(substeps)
		for i := 0; i < substeps; i++ {
			s, err := chem.ReactionStep(c, b.Parameters, dt)
			if err != nil {
				return backoff.Permanent(err)
			}
			status = s
			if !s.Converged {
				substeps *= 2
				return &beaker.NotConvergedError{Status: s}
			}
		}
		return nil
	}
	err := backoff.RetryNotify(op,
		backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(b.MaxStepRetries)),
		func(err error, _ time.Duration) {
			out.Printf(beaker.Verbose, "%v: retrying with %d sub-steps", err, substeps)
		},
	)
	return status, err
}

func cloneComponents(c *beaker.Components) *beaker.Components {
	o := *c
	o.Total = clone(c.Total)
	o.FreeIon = clone(c.FreeIon)
	o.Minerals = clone(c.Minerals)
	o.TotalSorbed = clone(c.TotalSorbed)
	o.IonExchangeSites = clone(c.IonExchangeSites)
	o.ActivityCoefficients = clone(c.ActivityCoefficients)
	o.SurfaceFreeSites = clone(c.SurfaceFreeSites)
	return &o
}

func restoreComponents(dst, src *beaker.Components) {
	copy(dst.Total, src.Total)
	copy(dst.FreeIon, src.FreeIon)
	copy(dst.Minerals, src.Minerals)
	copy(dst.TotalSorbed, src.TotalSorbed)
	copy(dst.IonExchangeSites, src.IonExchangeSites)
	copy(dst.ActivityCoefficients, src.ActivityCoefficients)
	copy(dst.SurfaceFreeSites, src.SurfaceFreeSites)
	dst.IonicStrength = src.IonicStrength
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}
