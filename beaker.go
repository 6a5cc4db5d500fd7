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

// Package beaker is a geochemical batch solver. For one control volume
// it computes the equilibrium speciation of an aqueous solution, with
// ion exchange, surface complexation and sorption isotherms, and
// integrates kinetic mineral dissolution and precipitation over time.
//
// A Network describes the chemical system and is shared. A Beaker holds
// the work arrays for one solve at a time; the chemical state itself is
// held by the caller in Components, so one Beaker can be used for many
// control volumes in turn.
package beaker

import (
	"fmt"
	"math"

	"github.com/spatialmodel/beaker/science/activity"
	"github.com/spatialmodel/beaker/science/kinetics"
	"github.com/spatialmodel/beaker/species"
	"gonum.org/v1/gonum/mat"
)

// defaultFreeIon is the initial guess for free-ion concentrations that
// are not provided [mol/kg water].
const defaultFreeIon = 1.e-9

// Beaker solves the chemistry of one control volume at a time.
// A Beaker is not safe for concurrent use; use one per goroutine.
type Beaker struct {
	net *Network
	out *Output
	buf *Buffer

	params    Parameters
	activity  activity.Model
	waterMass float64 // kg

	// Primary species, indexed by identifier.
	primary []species.Species
	lnC     []float64
	c       []float64
	lnGamma []float64
	gamma   []float64
	lnA     []float64
	total   []float64 // aqueous totals [mol/kg water]
	sorbed  []float64 // [mol/m³ bulk]

	// Aqueous complexes.
	complexes []species.Species
	x         []float64
	lnGammaX  []float64

	ionicStrength float64

	minerals    []float64 // volume fractions
	ssa         []float64 // m²/m³ bulk
	cec         []float64 // eq/m³ bulk
	siteDensity []float64 // mol/m³ bulk
	freeSites   []float64 // mol/m³ bulk

	// Sorption work arrays.
	beta      []float64 // equivalent fraction of each exchange complex
	exchangeZ []float64 // Σ z β per exchange site
	surfaceX  []float64 // concentration of each surface complex
	isoDeriv  []float64 // ∂S/∂ln a for each isotherm

	// Newton work arrays.
	target    []float64
	residual  []float64
	scale     []float64
	absTotal  []float64
	absSorbed []float64
	lnCOld    []float64
	rhs       []float64
	jac       *mat.Dense
}

// New returns a Beaker for the given network. out may be nil.
func New(net *Network, out *Output) *Beaker {
	n := net.Primary.Len()
	b := &Beaker{
		net:     net,
		out:     out,
		primary: make([]species.Species, n),
		lnC:     make([]float64, n),
		c:       make([]float64, n),
		lnGamma: make([]float64, n),
		gamma:   make([]float64, n),
		lnA:     make([]float64, n),
		total:   make([]float64, n),
		sorbed:  make([]float64, n),

		complexes: make([]species.Species, len(net.Complexes)),
		x:         make([]float64, len(net.Complexes)),
		lnGammaX:  make([]float64, len(net.Complexes)),

		minerals:    make([]float64, len(net.Minerals)),
		ssa:         make([]float64, len(net.Minerals)),
		cec:         make([]float64, len(net.ExchangeSites)),
		siteDensity: make([]float64, len(net.SurfaceSites)),
		freeSites:   make([]float64, len(net.SurfaceSites)),

		beta:      make([]float64, len(net.ExchangeComplexes)),
		exchangeZ: make([]float64, len(net.ExchangeSites)),
		surfaceX:  make([]float64, len(net.SurfaceComplexes)),
		isoDeriv:  make([]float64, len(net.Isotherms)),

		target:    make([]float64, n),
		residual:  make([]float64, n),
		scale:     make([]float64, n),
		absTotal:  make([]float64, n),
		absSorbed: make([]float64, n),
		lnCOld:    make([]float64, n),
		rhs:       make([]float64, n),
		jac:       mat.NewDense(n, n, nil),
	}
	for i := 0; i < n; i++ {
		b.primary[i] = net.Primary.Species(i)
	}
	for i, c := range net.Complexes {
		b.complexes[i] = c.Species
	}
	return b
}

// Setup binds the activity model and parameters and checks that c is
// consistent with the network. Missing free-ion concentrations are set to
// a small positive value, and missing optional arrays are allocated.
func (b *Beaker) Setup(c *Components, p Parameters) error {
	const op = "setup"
	if err := p.validate(); err != nil {
		return err
	}
	n := len(b.primary)
	if len(c.Total) == 0 {
		return configErrorf(op, "total concentration array is empty")
	}
	if len(c.Total) != n {
		return configErrorf(op, "%d total concentrations for %d primary species", len(c.Total), n)
	}
	if b.activity == nil || b.activity.Name() != p.ActivityModelName {
		m, err := activity.New(p.ActivityModelName)
		if err != nil {
			return &ConfigError{Op: op, Err: err}
		}
		b.activity = m
	}
	if len(c.FreeIon) == 0 {
		c.FreeIon = make([]float64, n)
		for i := range c.FreeIon {
			c.FreeIon[i] = defaultFreeIon
		}
	}
	for _, a := range []struct {
		name string
		v    *[]float64
		n    int
		init float64
	}{
		{name: "free-ion concentration", v: &c.FreeIon, n: n},
		{name: "mineral volume fraction", v: &c.Minerals, n: len(b.minerals)},
		{name: "total sorbed concentration", v: &c.TotalSorbed, n: n},
		{name: "ion exchange site", v: &c.IonExchangeSites, n: len(b.cec)},
		{name: "activity coefficient", v: &c.ActivityCoefficients, n: n, init: 1},
		{name: "surface free site", v: &c.SurfaceFreeSites, n: len(b.freeSites)},
	} {
		if len(*a.v) == 0 {
			*a.v = make([]float64, a.n)
			for i := range *a.v {
				(*a.v)[i] = a.init
			}
		} else if len(*a.v) != a.n {
			return configErrorf(op, "%d values of %s, but there should be %d", len(*a.v), a.name, a.n)
		}
	}
	if len(p.MineralSpecificSurfaceArea) != 0 && len(p.MineralSpecificSurfaceArea) != len(b.minerals) {
		return configErrorf(op, "%d mineral specific surface areas for %d minerals",
			len(p.MineralSpecificSurfaceArea), len(b.minerals))
	}
	if len(p.SorptionSiteDensity) != 0 && len(p.SorptionSiteDensity) != len(b.siteDensity) {
		return configErrorf(op, "%d sorption site densities for %d surface sites",
			len(p.SorptionSiteDensity), len(b.siteDensity))
	}
	w, err := p.WaterMass()
	if err != nil {
		return &ConfigError{Op: op, Err: err}
	}
	b.waterMass = w
	b.params = p
	return nil
}

// load copies the state in c into the work arrays.
func (b *Beaker) load(c *Components) error {
	for i, v := range c.FreeIon {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s = %g", ErrNumericalDomain, b.primary[i].Name, v)
		}
		b.lnC[i] = math.Log(v)
	}
	for i := range b.x {
		b.x[i] = 0
	}
	if c.IonicStrength > 0 {
		b.setActivityCoefficients(c.IonicStrength)
	} else {
		b.updateActivityCoefficients()
	}
	copy(b.minerals, c.Minerals)
	copy(b.cec, c.IonExchangeSites)
	for i, m := range b.net.Minerals {
		b.ssa[i] = m.SpecificSurfaceArea
	}
	copy(b.ssa, b.params.MineralSpecificSurfaceArea)
	for i := range b.siteDensity {
		b.siteDensity[i] = 0
	}
	copy(b.siteDensity, b.params.SorptionSiteDensity)
	return nil
}

// Speciate solves for the free-ion concentrations that are in
// equilibrium with the total aqueous concentrations in c. Sorbed
// concentrations are recomputed from the solution but do not take part in
// the mass balance. c is not changed except by Setup; use
// CopyBeakerToComponents to retrieve the results.
//
// Failure to converge is reported in the returned status, not as an
// error.
func (b *Beaker) Speciate(c *Components, p Parameters) (SolverStatus, error) {
	var status SolverStatus
	if err := b.Setup(c, p); err != nil {
		return status, err
	}
	b.buf = b.out.Buffer()
	defer b.buf.Flush()
	if err := b.load(c); err != nil {
		return status, err
	}
	copy(b.target, c.Total)
	err := b.newton(b.target, false, &status)
	b.logStatus("Speciate", status)
	return status, err
}

// ReactionStep advances the kinetic mineral reactions in c by dt seconds
// and then restores equilibrium. The total aqueous plus sorbed moles of
// each primary species change only through the kinetic reactions.
// On convergence the results are copied into c; otherwise c is unchanged.
func (b *Beaker) ReactionStep(c *Components, p Parameters, dt float64) (SolverStatus, error) {
	var status SolverStatus
	if !(dt >= 0) || math.IsInf(dt, 0) {
		return status, configErrorf("reaction step", "invalid time step %g", dt)
	}
	if err := b.Setup(c, p); err != nil {
		return status, err
	}
	b.buf = b.out.Buffer()
	defer b.buf.Flush()
	if err := b.load(c); err != nil {
		return status, err
	}

	copy(b.target, c.Total)
	if err := b.newton(b.target, false, &status); err != nil || !status.Converged {
		b.logStatus("ReactionStep: initial speciation", status)
		return status, err
	}

	rates, err := b.mineralRates(dt)
	if err != nil {
		return status, err
	}

	// Convert everything to moles, apply the kinetic changes, and convert
	// back to molality.
	V, W := b.params.Volume, b.waterMass
	for j := range b.target {
		b.target[j] = c.Total[j]*W + c.TotalSorbed[j]*V
	}
	for m, rate := range rates {
		if rate == 0 {
			continue
		}
		mineral := &b.net.Minerals[m]
		for i, id := range mineral.Reaction.IDs {
			b.target[id] += mineral.Reaction.Stoichiometry[i] * rate * dt
		}
		b.minerals[m] -= rate * dt * mineral.MolarVolumeSI() / V
		if b.minerals[m] < 0 {
			b.minerals[m] = 0
		}
	}
	for j := range b.target {
		b.target[j] /= W
	}

	status.Converged = false
	err = b.newton(b.target, b.net.HasSorption(), &status)
	b.logStatus("ReactionStep", status)
	if err != nil || !status.Converged {
		return status, err
	}
	b.CopyBeakerToComponents(c)
	return status, nil
}

// mineralRates returns the net dissolution rate of each mineral [mol/s],
// limited so that no more mineral dissolves in dt than is present.
func (b *Beaker) mineralRates(dt float64) ([]float64, error) {
	rates := make([]float64, len(b.minerals))
	s := kinetics.State{LnActivity: b.lnA, Volume: b.params.Volume}
	for _, k := range b.net.Kinetics {
		s.VolumeFraction = b.minerals[k.Mineral]
		s.SpecificSurfaceArea = b.ssa[k.Mineral]
		r := k.Rate.Rate(&s)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("%w: rate of %s is %g", ErrNumericalDomain, k.Rate.Base().Name, r)
		}
		rates[k.Mineral] += r
	}
	for m, r := range rates {
		mineral := &b.net.Minerals[m]
		if r > 0 && dt > 0 {
			present := b.minerals[m] * b.params.Volume / mineral.MolarVolumeSI() // mol
			if r*dt > present {
				b.buf.Printf(DebugMineralKinetics, "mineral %s: dissolution limited to %g mol", mineral.Name(), present)
				r = present / dt
				rates[m] = r
			}
		}
		b.buf.Printf(DebugMineralKinetics, "mineral %s: rate %g mol/s", mineral.Name(), r)
	}
	return rates, nil
}

func (b *Beaker) logStatus(op string, s SolverStatus) {
	if !s.Converged && len(s.ResidualNorms) > 0 {
		b.buf.Printf(Verbose, "%s did not converge after %d iterations; residual norm %g",
			op, s.NumNewtonIterations, s.ResidualNorms[len(s.ResidualNorms)-1])
	}
	b.buf.Printf(DebugBeaker, "%s: %v", op, s)
}

// CopyBeakerToComponents copies the results of the most recent solve into
// c. Total aqueous concentrations are recomputed from the free-ion
// concentrations.
func (b *Beaker) CopyBeakerToComponents(c *Components) {
	c.FreeIon = copyInto(c.FreeIon, b.c)
	c.Total = copyInto(c.Total, b.total)
	c.Minerals = copyInto(c.Minerals, b.minerals)
	c.TotalSorbed = copyInto(c.TotalSorbed, b.sorbed)
	c.IonExchangeSites = copyInto(c.IonExchangeSites, b.cec)
	c.ActivityCoefficients = copyInto(c.ActivityCoefficients, b.gamma)
	c.SurfaceFreeSites = copyInto(c.SurfaceFreeSites, b.freeSites)
	c.IonicStrength = b.ionicStrength
}

func copyInto(dst, src []float64) []float64 {
	if len(dst) != len(src) {
		dst = make([]float64, len(src))
	}
	copy(dst, src)
	return dst
}

// Network returns the reaction network.
func (b *Beaker) Network() *Network { return b.net }

// WaterMass returns the mass of water [kg] for the most recent solve.
func (b *Beaker) WaterMass() float64 { return b.waterMass }

// IonicStrength returns the ionic strength [mol/kg water] from the most
// recent solve.
func (b *Beaker) IonicStrength() float64 { return b.ionicStrength }

// LnActivity returns the natural log of the activity of each primary
// species from the most recent solve.
func (b *Beaker) LnActivity() []float64 { return append([]float64(nil), b.lnA...) }

// ComplexConcentrations returns the concentration of each aqueous complex
// [mol/kg water] from the most recent solve.
func (b *Beaker) ComplexConcentrations() []float64 { return append([]float64(nil), b.x...) }

// SaturationIndices returns log10(Q/K) of each mineral.
func (b *Beaker) SaturationIndices() []float64 {
	si := make([]float64, len(b.net.Minerals))
	for i := range b.net.Minerals {
		si[i] = b.net.Minerals[i].Reaction.LnQK(b.lnA) / math.Ln10
	}
	return si
}
