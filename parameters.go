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

	"github.com/ctessum/unit"
)

// Components is the chemical state of one control volume. It is owned by
// the caller and updated by Beaker.CopyBeakerToComponents and
// Beaker.ReactionStep.
type Components struct {
	// Total is the total aqueous concentration of each primary species
	// [mol/kg water], indexed by species identifier. It is required.
	Total []float64

	// FreeIon is the free-ion concentration of each primary species
	// [mol/kg water]. It is the equilibrium unknown; if it is empty it is
	// initialized by Setup.
	FreeIon []float64

	// Minerals is the volume fraction of each mineral [m³/m³ bulk].
	Minerals []float64

	// TotalSorbed is the sorbed concentration of each primary species
	// [mol/m³ bulk].
	TotalSorbed []float64

	// IonExchangeSites is the cation exchange capacity of each ion
	// exchange site [eq/m³ bulk].
	IonExchangeSites []float64

	// ActivityCoefficients of the primary species.
	ActivityCoefficients []float64

	// SurfaceFreeSites is the concentration of free surface complexation
	// sites [mol/m³ bulk].
	SurfaceFreeSites []float64

	// IonicStrength [mol/kg water] from the most recent solve. If it is
	// positive it is used to compute the initial activity coefficients.
	IonicStrength float64
}

// Parameters holds the configuration of a Beaker.
type Parameters struct {
	Porosity     float64 // [m³ pore/m³ bulk]
	Saturation   float64 // [m³ water/m³ pore]
	Volume       float64 // bulk volume [m³]
	WaterDensity float64 // [kg/m³]

	// ActivityModelName selects the activity model; see activity.New.
	ActivityModelName string

	// Tolerance is the Newton convergence criterion on the relative
	// residual norm.
	Tolerance float64

	// MaxIterations is the maximum number of Newton iterations.
	MaxIterations int

	// MaxLnChange is the largest change in the natural log of any free-ion
	// concentration allowed in one Newton iteration.
	MaxLnChange float64

	// MineralSpecificSurfaceArea holds the reactive surface area of each
	// mineral [m²/m³ bulk]. If empty, the database values are used.
	MineralSpecificSurfaceArea []float64

	// SorptionSiteDensity holds the density of each surface complexation
	// site [mol/m³ bulk].
	SorptionSiteDensity []float64
}

// DefaultParameters returns parameters for one cubic meter of water with
// an ideal solution model.
func DefaultParameters() Parameters {
	return Parameters{
		Porosity:          1,
		Saturation:        1,
		Volume:            1,
		WaterDensity:      1000,
		ActivityModelName: "unit",
		Tolerance:         1.e-12,
		MaxIterations:     250,
		MaxLnChange:       5,
	}
}

// WaterMass returns the mass of water in the control volume [kg].
func (p Parameters) WaterMass() (float64, error) {
	w := unit.Mul(
		unit.New(p.Porosity, unit.Dimless),
		unit.New(p.Saturation, unit.Dimless),
		unit.New(p.Volume, unit.Meter3),
		unit.New(p.WaterDensity, unit.KilogramPerMeter3),
	)
	if err := w.Check(unit.Kilogram); err != nil {
		return 0, err
	}
	return w.Value(), nil
}

func (p Parameters) validate() error {
	const op = "parameters"
	switch {
	case !(p.Porosity > 0 && p.Porosity <= 1):
		return configErrorf(op, "porosity %g must be in (0, 1]", p.Porosity)
	case !(p.Saturation > 0 && p.Saturation <= 1):
		return configErrorf(op, "saturation %g must be in (0, 1]", p.Saturation)
	case !(p.Volume > 0):
		return configErrorf(op, "volume %g must be > 0", p.Volume)
	case !(p.WaterDensity > 0):
		return configErrorf(op, "water density %g must be > 0", p.WaterDensity)
	case !(p.Tolerance > 0):
		return configErrorf(op, "tolerance %g must be > 0", p.Tolerance)
	case p.MaxIterations <= 0:
		return configErrorf(op, "maximum iterations %d must be > 0", p.MaxIterations)
	case !(p.MaxLnChange > 0):
		return configErrorf(op, "maximum ln change %g must be > 0", p.MaxLnChange)
	}
	return nil
}

// SolverStatus describes the work done by one Speciate or ReactionStep
// call.
type SolverStatus struct {
	NumRHSEvaluations      int
	NumJacobianEvaluations int
	NumNewtonIterations    int
	Converged              bool

	// ResidualNorms holds the relative residual norm at the start of
	// every Newton iteration, and the final norm.
	ResidualNorms []float64
}

func (s SolverStatus) String() string {
	return fmt.Sprintf("converged: %v, iterations: %d, residual evaluations: %d, jacobian evaluations: %d",
		s.Converged, s.NumNewtonIterations, s.NumRHSEvaluations, s.NumJacobianEvaluations)
}
