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
	"runtime"
	"sync"
)

// CellFunc performs a calculation on the chemical state c of cell i using
// Beaker b.
type CellFunc func(b *Beaker, i int, c *Components) error

// NotConvergedError is returned by the functions created by Speciation
// and Reaction when the solver does not converge for a cell.
type NotConvergedError struct {
	Cell   int
	Status SolverStatus
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("beaker: cell %d did not converge (%v)", e.Cell, e.Status)
}

// Speciation returns a CellFunc that speciates each cell and copies the
// results into it.
func Speciation(p Parameters) CellFunc {
	return func(b *Beaker, i int, c *Components) error {
		status, err := b.Speciate(c, p)
		if err != nil {
			return err
		}
		if !status.Converged {
			return &NotConvergedError{Cell: i, Status: status}
		}
		b.CopyBeakerToComponents(c)
		return nil
	}
}

// Reaction returns a CellFunc that advances each cell by dt seconds.
func Reaction(p Parameters, dt float64) CellFunc {
	return func(b *Beaker, i int, c *Components) error {
		status, err := b.ReactionStep(c, p, dt)
		if err != nil {
			return err
		}
		if !status.Converged {
			return &NotConvergedError{Cell: i, Status: status}
		}
		return nil
	}
}

// Calculations concurrently runs a series of calculations on every cell.
// Each worker goroutine has its own Beaker; the network and output are
// shared. A worker stops at its first error, and one of the errors is
// returned.
func Calculations(net *Network, out *Output, cells []*Components, calculators ...CellFunc) error {
	nprocs := runtime.GOMAXPROCS(0) // number of processors
	var wg sync.WaitGroup
	errChan := make(chan error, nprocs)

	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			b := New(net, out)
			for ii := pp; ii < len(cells); ii += nprocs {
				for _, f := range calculators {
					if err := f(b, ii, cells[ii]); err != nil {
						errChan <- err
						return
					}
				}
			}
		}(pp)
	}
	wg.Wait()
	close(errChan)
	return <-errChan
}
