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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/kr/pretty"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/beaker"
	"github.com/spatialmodel/beaker/science/kinetics"
	"github.com/spf13/cast"
)

// Water densities [kg/m³] used by other reactive transport codes, for
// comparing results.
var comparisonWaterDensity = map[string]float64{
	"pflotran": 997.16,
	"crunch":   997.075,
}

// Seconds per output time unit.
var timeUnits = map[string]float64{
	"s":   1,
	"min": 60,
	"h":   60 * 60,
	"d":   60 * 60 * 24,
	"y":   60 * 60 * 24 * 365.25,
}

// Batch is a batch simulation of one control volume.
type Batch struct {
	Network    *beaker.Network
	Components beaker.Components
	Parameters beaker.Parameters

	DeltaTime      float64 // [s]
	NumTimeSteps   int
	OutputInterval int
	MaxStepRetries int

	// TimeUnits are the units of time in the output files, and
	// SecondsPerTimeUnit converts them to seconds.
	TimeUnits          string
	SecondsPerTimeUnit float64

	TextOutput, XLSXOutput, PlotOutput string

	// OutputVariables are additional output expressions, keyed by
	// column name.
	OutputVariables map[string]*govaluate.EvaluableExpression
}

// batchInput is the part of a Batch that is printed at the debug_driver
// level.
type batchInput struct {
	Database                           string
	Components                         beaker.Components
	Parameters                         beaker.Parameters
	DeltaTime                          float64
	NumTimeSteps, OutputInterval       int
	MaxStepRetries                     int
	TimeUnits                          string
	TextOutput, XLSXOutput, PlotOutput string
	OutputVariables                    map[string]string
}

// LoadBatch reads a batch simulation from cfg, loading the database it
// refers to.
func LoadBatch(ctx context.Context, cfg *viper.Viper, out *beaker.Output) (*Batch, error) {
	dbPath := os.ExpandEnv(cfg.GetString("Database"))
	if dbPath == "" {
		return nil, fmt.Errorf("beaker: you need to specify a thermodynamic database in the Database configuration variable")
	}
	net, err := Databases.Load(ctx, dbPath, cfg.GetString("DatabaseFormat"), out)
	if err != nil {
		return nil, err
	}
	b := &Batch{
		Network:        net,
		DeltaTime:      cfg.GetFloat64("DeltaTime"),
		NumTimeSteps:   cfg.GetInt("NumTimeSteps"),
		OutputInterval: cfg.GetInt("OutputInterval"),
		MaxStepRetries: cfg.GetInt("MaxStepRetries"),
		TextOutput:     os.ExpandEnv(cfg.GetString("TextOutput")),
		XLSXOutput:     os.ExpandEnv(cfg.GetString("XLSXOutput")),
		PlotOutput:     os.ExpandEnv(cfg.GetString("PlotOutput")),
	}
	if b.NumTimeSteps < 0 {
		return nil, fmt.Errorf("beaker: NumTimeSteps=%d but should be >= 0", b.NumTimeSteps)
	}
	if b.NumTimeSteps > 0 {
		if !(b.DeltaTime > 0) {
			return nil, fmt.Errorf("beaker: DeltaTime=%g but should be > 0", b.DeltaTime)
		}
		if b.OutputInterval < 1 {
			return nil, fmt.Errorf("beaker: OutputInterval=%d but should be >= 1", b.OutputInterval)
		}
	}
	if b.MaxStepRetries < 0 {
		b.MaxStepRetries = 0
	}
	if b.TimeUnits, b.SecondsPerTimeUnit, err = checkTimeUnits(cfg.GetString("TextTimeUnits")); err != nil {
		return nil, err
	}
	if b.Parameters, err = parameters(cfg, net); err != nil {
		return nil, err
	}
	if b.Components, err = components(cfg, net); err != nil {
		return nil, err
	}
	outputVars, err := GetStringMapString("OutputVariables", cfg)
	if err != nil {
		return nil, fmt.Errorf("beaker: OutputVariables: %v", err)
	}
	if b.OutputVariables, err = parseOutputVariables(outputVars, net); err != nil {
		return nil, err
	}

	if out.Enabled(beaker.DebugDriver) {
		out.Printf(beaker.DebugDriver, "%# v", pretty.Formatter(batchInput{
			Database:        dbPath,
			Components:      b.Components,
			Parameters:      b.Parameters,
			DeltaTime:       b.DeltaTime,
			NumTimeSteps:    b.NumTimeSteps,
			OutputInterval:  b.OutputInterval,
			MaxStepRetries:  b.MaxStepRetries,
			TimeUnits:       b.TimeUnits,
			TextOutput:      b.TextOutput,
			XLSXOutput:      b.XLSXOutput,
			PlotOutput:      b.PlotOutput,
			OutputVariables: outputVars,
		}))
	}
	return b, nil
}

// checkTimeUnits returns the canonical name of the time unit u and its
// length in seconds.
func checkTimeUnits(u string) (string, float64, error) {
	u = strings.ToLower(strings.TrimSpace(u))
	switch u {
	case "", "sec", "second", "seconds":
		u = "s"
	case "m", "minute", "minutes":
		u = "min"
	case "hr", "hour", "hours":
		u = "h"
	case "day", "days":
		u = "d"
	case "yr", "year", "years":
		u = "y"
	}
	s, ok := timeUnits[u]
	if !ok {
		return "", 0, fmt.Errorf("beaker: the TextTimeUnits variable in the configuration file "+
			"needs to be set to s, min, h, d, or y, but is currently set to `%s`", u)
	}
	return u, s, nil
}

// verbosity returns the diagnostic levels named in the Verbosity option.
func verbosity(cfg *viper.Viper) ([]string, error) {
	var names []string
	switch v := cfg.Get("Verbosity").(type) {
	case nil:
	case string:
		names = strings.Split(strings.Trim(v, "[]"), ",")
	default:
		var err error
		if names, err = cast.ToStringSliceE(v); err != nil {
			return nil, fmt.Errorf("beaker: Verbosity: %v", err)
		}
	}
	var o []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			o = append(o, n)
		}
	}
	return o, nil
}

// parameters reads the solver parameters from cfg.
func parameters(cfg *viper.Viper, net *beaker.Network) (beaker.Parameters, error) {
	p := beaker.DefaultParameters()
	if v := cfg.GetString("ActivityModel"); v != "" {
		p.ActivityModelName = v
	}
	// Unset options keep their default values.
	for _, o := range []struct {
		name string
		v    *float64
	}{
		{"Porosity", &p.Porosity},
		{"Saturation", &p.Saturation},
		{"Volume", &p.Volume},
		{"WaterDensity", &p.WaterDensity},
		{"Tolerance", &p.Tolerance},
		{"MaxLnChange", &p.MaxLnChange},
	} {
		if v := cfg.GetFloat64(o.name); v != 0 {
			*o.v = v
		}
	}
	if m := strings.ToLower(cfg.GetString("ComparisonModel")); m != "" {
		d, ok := comparisonWaterDensity[m]
		if !ok {
			return p, fmt.Errorf("beaker: invalid ComparisonModel '%s'; valid options are 'pflotran' and 'crunch'", m)
		}
		p.WaterDensity = d
	}
	if v := cfg.GetInt("MaxIterations"); v != 0 {
		p.MaxIterations = v
	}

	ssa, err := GetStringMapFloat("MineralSSA", cfg)
	if err != nil {
		return p, err
	}
	if len(ssa) > 0 {
		names := make([]string, len(net.Minerals))
		defaults := make([]float64, len(net.Minerals))
		for i := range net.Minerals {
			names[i] = net.Minerals[i].Name()
			defaults[i] = net.Minerals[i].SpecificSurfaceArea
		}
		if p.MineralSpecificSurfaceArea, err = vector("MineralSSA", ssa, names, defaults, false); err != nil {
			return p, err
		}
	}

	density, err := GetStringMapFloat("SiteDensity", cfg)
	if err != nil {
		return p, err
	}
	sites := make([]string, len(net.SurfaceSites))
	for i, s := range net.SurfaceSites {
		sites[i] = s.Name
	}
	if p.SorptionSiteDensity, err = vector("SiteDensity", density, sites, nil, false); err != nil {
		return p, err
	}
	return p, nil
}

// components reads the initial chemical state from cfg.
func components(cfg *viper.Viper, net *beaker.Network) (beaker.Components, error) {
	var c beaker.Components
	primary := net.Primary.Names()

	total, err := GetStringMapFloat("Total", cfg)
	if err != nil {
		return c, err
	}
	if len(total) == 0 {
		return c, fmt.Errorf("beaker: you need to specify the total concentration of each primary species in the Total configuration variable")
	}
	if c.Total, err = vector("Total", total, primary, nil, true); err != nil {
		return c, err
	}

	freeIon, err := GetStringMapFloat("FreeIon", cfg)
	if err != nil {
		return c, err
	}
	if len(freeIon) > 0 {
		guess := make([]float64, len(primary))
		for i := range guess {
			guess[i] = 1.e-9
		}
		if c.FreeIon, err = vector("FreeIon", freeIon, primary, guess, false); err != nil {
			return c, err
		}
	}

	sorbed, err := GetStringMapFloat("TotalSorbed", cfg)
	if err != nil {
		return c, err
	}
	if len(sorbed) > 0 {
		if c.TotalSorbed, err = vector("TotalSorbed", sorbed, primary, nil, false); err != nil {
			return c, err
		}
	}

	minerals, err := GetStringMapFloat("Minerals", cfg)
	if err != nil {
		return c, err
	}
	names := make([]string, len(net.Minerals))
	for i := range net.Minerals {
		names[i] = net.Minerals[i].Name()
	}
	if c.Minerals, err = vector("Minerals", minerals, names, nil, false); err != nil {
		return c, err
	}

	cec, err := GetStringMapFloat("IonExchangeSites", cfg)
	if err != nil {
		return c, err
	}
	sites := make([]string, len(net.ExchangeSites))
	for i, s := range net.ExchangeSites {
		sites[i] = s.Name
	}
	if c.IonExchangeSites, err = vector("IonExchangeSites", cec, sites, nil, false); err != nil {
		return c, err
	}
	return c, nil
}

// vector arranges the values in m in the order of names. Map keys are
// matched to names without regard to case, because configuration keys
// are not case sensitive. Names missing from m take their value from
// defaults, or zero if defaults is nil, unless required is true. Keys
// that match no name are an error.
func vector(varName string, m map[string]float64, names []string, defaults []float64, required bool) ([]float64, error) {
	o := make([]float64, len(names))
	copy(o, defaults)
	found := make([]bool, len(names))
	for k, v := range m {
		match := -1
		for i, n := range names {
			if n == k {
				match = i
				break
			}
			if strings.EqualFold(n, k) {
				if match >= 0 {
					return nil, fmt.Errorf("beaker: %s: '%s' matches both %s and %s", varName, k, names[match], n)
				}
				match = i
			}
		}
		if match < 0 {
			return nil, fmt.Errorf("beaker: %s: unknown name '%s'; valid names are %s", varName, k, strings.Join(names, ", "))
		}
		o[match] = v
		found[match] = true
	}
	if required {
		for i, f := range found {
			if !f {
				return nil, fmt.Errorf("beaker: %s: missing value for %s", varName, names[i])
			}
		}
	}
	return o, nil
}

// outputVariableNames returns the names of the variables available to
// output expressions for network net.
func outputVariableNames(net *beaker.Network) []string {
	names := []string{"I", "t"}
	for _, n := range net.Primary.Names() {
		names = append(names, kinetics.ActivityVar(n), variable("m", n), variable("T", n), variable("S", n))
	}
	for i := range net.Minerals {
		n := net.Minerals[i].Name()
		names = append(names, variable("vf", n), variable("SI", n))
	}
	return names
}

// variable returns the output expression variable with the given prefix
// for species or mineral name.
func variable(prefix, name string) string {
	return prefix + strings.TrimPrefix(kinetics.ActivityVar(name), "a")
}

// parseOutputVariables parses the output expressions and checks that they
// only refer to known variables.
func parseOutputVariables(vars map[string]string, net *beaker.Network) (map[string]*govaluate.EvaluableExpression, error) {
	if len(vars) == 0 {
		return nil, nil
	}
	known := make(map[string]bool)
	for _, n := range outputVariableNames(net) {
		known[n] = true
	}
	o := make(map[string]*govaluate.EvaluableExpression)
	for name, expr := range vars {
		expr = strings.Replace(expr, "\r\n", " ", -1)
		expr = strings.Replace(expr, "\n", " ", -1)
		e, err := govaluate.NewEvaluableExpressionWithFunctions(os.ExpandEnv(expr), kinetics.Functions())
		if err != nil {
			return nil, fmt.Errorf("beaker: output variable %s: %v", name, err)
		}
		for _, v := range e.Vars() {
			if !known[v] {
				return nil, fmt.Errorf("beaker: output variable %s: unknown variable '%s'", name, v)
			}
		}
		o[name] = e
	}
	return o, nil
}

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]*govaluate.EvaluableExpression) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// GetStringMapFloat returns a map[string]float64 from a viper
// configuration, accounting for the fact that it might be a json object
// if it was set from a command line argument.
func GetStringMapFloat(varName string, cfg *viper.Viper) (map[string]float64, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]float64{}, nil
	case map[string]float64:
		return v, nil
	case map[string]interface{}:
		o := make(map[string]float64, len(v))
		for k, val := range v {
			f, err := cast.ToFloat64E(val)
			if err != nil {
				return nil, fmt.Errorf("beaker: %s: value for %s: %v", varName, k, err)
			}
			o[k] = f
		}
		return o, nil
	case string:
		o := make(map[string]float64)
		if strings.TrimSpace(v) == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("beaker: %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("beaker: invalid type for %s: %#v", varName, i)
	}
}

// GetStringMapString returns a map[string]string from a viper
// configuration, accounting for the fact that it might be a json object
// if it was set from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if strings.TrimSpace(v) == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, err
		}
		return o, nil
	default:
		return nil, fmt.Errorf("invalid type for GetStringMapString variable %s: %#v", varName, i)
	}
}
