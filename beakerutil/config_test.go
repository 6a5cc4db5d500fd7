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
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lnashier/viper"
)

func TestGetStringMapFloat(t *testing.T) {
	cfg := viper.New()
	want := map[string]float64{"H+": 1e-3, "Ca++": 2}
	for name, v := range map[string]interface{}{
		"json":      `{"H+": 1e-3, "Ca++": 2}`,
		"interface": map[string]interface{}{"H+": 1e-3, "Ca++": int64(2)},
		"float":     map[string]float64{"H+": 1e-3, "Ca++": 2},
	} {
		t.Run(name, func(t *testing.T) {
			cfg.Set("Total", v)
			have, err := GetStringMapFloat("Total", cfg)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(have, want) {
				t.Errorf("have %v, want %v", have, want)
			}
		})
	}
	cfg.Set("Total", `{"H+": "one"}`)
	if _, err := GetStringMapFloat("Total", cfg); err == nil {
		t.Error("invalid json should be an error")
	}
	have, err := GetStringMapFloat("Missing", cfg)
	if err != nil || len(have) != 0 {
		t.Errorf("missing variable: %v, %v", have, err)
	}
}

func TestVector(t *testing.T) {
	names := []string{"H+", "Ca++", "CO2(aq)"}
	t.Run("case insensitive", func(t *testing.T) {
		v, err := vector("Total", map[string]float64{"h+": 1, "co2(aq)": 3, "Ca++": 2}, names, nil, true)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(v, []float64{1, 2, 3}) {
			t.Errorf("have %v", v)
		}
	})
	t.Run("defaults", func(t *testing.T) {
		v, err := vector("FreeIon", map[string]float64{"ca++": 2}, names, []float64{9, 9, 9}, false)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(v, []float64{9, 2, 9}) {
			t.Errorf("have %v", v)
		}
	})
	t.Run("missing", func(t *testing.T) {
		_, err := vector("Total", map[string]float64{"H+": 1}, names, nil, true)
		if err == nil || !strings.Contains(err.Error(), "Ca++") {
			t.Errorf("have %v, want missing Ca++", err)
		}
	})
	t.Run("unknown", func(t *testing.T) {
		_, err := vector("Total", map[string]float64{"Mg++": 1}, names, nil, false)
		if err == nil || !strings.Contains(err.Error(), "Mg++") {
			t.Errorf("have %v, want unknown Mg++", err)
		}
	})
}

func TestCheckTimeUnits(t *testing.T) {
	for _, test := range []struct {
		in, unit string
		seconds  float64
	}{
		{"", "s", 1},
		{"min", "min", 60},
		{"Hours", "h", 3600},
		{"d", "d", 86400},
		{"y", "y", 31557600},
	} {
		u, s, err := checkTimeUnits(test.in)
		if err != nil {
			t.Errorf("%s: %v", test.in, err)
			continue
		}
		if u != test.unit || s != test.seconds {
			t.Errorf("%s: have %s %g, want %s %g", test.in, u, s, test.unit, test.seconds)
		}
	}
	if _, _, err := checkTimeUnits("fortnight"); err == nil {
		t.Error("invalid units should be an error")
	}
}

func TestVerbosity(t *testing.T) {
	cfg := viper.New()
	for _, v := range []interface{}{
		"verbose, debug_newton_solver",
		[]interface{}{"verbose", "debug_newton_solver"},
		[]string{"verbose", " debug_newton_solver"},
	} {
		cfg.Set("Verbosity", v)
		have, err := verbosity(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"verbose", "debug_newton_solver"}; !reflect.DeepEqual(have, want) {
			t.Errorf("%#v: have %v, want %v", v, have, want)
		}
	}
}

func TestLoadBatch(t *testing.T) {
	cfg := viper.New()
	cfg.SetConfigFile("testdata/calcite_batch.toml")
	if err := cfg.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	b, err := LoadBatch(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.Parameters.WaterDensity != 997.16 {
		t.Errorf("water density: have %g, want 997.16", b.Parameters.WaterDensity)
	}
	if b.Parameters.Porosity != 0.25 || b.Parameters.ActivityModelName != "debye-huckel" {
		t.Errorf("parameters: %+v", b.Parameters)
	}
	ca, _ := b.Network.Primary.Lookup("Ca++")
	if b.Components.Total[ca] != 1e-3 {
		t.Errorf("Ca++ total: have %g", b.Components.Total[ca])
	}
	if !reflect.DeepEqual(b.Components.Minerals, []float64{0.1}) {
		t.Errorf("minerals: %v", b.Components.Minerals)
	}
	if !reflect.DeepEqual(b.Components.IonExchangeSites, []float64{0.01}) {
		t.Errorf("ion exchange sites: %v", b.Components.IonExchangeSites)
	}
	if !reflect.DeepEqual(b.Parameters.SorptionSiteDensity, []float64{0.001}) {
		t.Errorf("site density: %v", b.Parameters.SorptionSiteDensity)
	}
	if b.TimeUnits != "h" || b.SecondsPerTimeUnit != 3600 {
		t.Errorf("time units: %s %g", b.TimeUnits, b.SecondsPerTimeUnit)
	}
	if len(b.OutputVariables) != 1 {
		t.Errorf("output variables: %v", b.OutputVariables)
	}

	again, err := LoadBatch(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if again.Network != b.Network {
		t.Error("the database should be read once and shared")
	}

	t.Run("unknown output variable", func(t *testing.T) {
		cfg.Set("OutputVariables", map[string]string{"pMg": "-log10(a_Mg)"})
		defer cfg.Set("OutputVariables", map[string]string{})
		if _, err := LoadBatch(context.Background(), cfg, nil); err == nil {
			t.Error("unknown variable should be an error")
		}
	})
	t.Run("comparison model", func(t *testing.T) {
		cfg.Set("ComparisonModel", "phreeqc")
		defer cfg.Set("ComparisonModel", "")
		if _, err := LoadBatch(context.Background(), cfg, nil); err == nil {
			t.Error("unknown comparison model should be an error")
		}
	})
	t.Run("no database", func(t *testing.T) {
		cfg.Set("Database", "")
		defer cfg.Set("Database", "../thermo/testdata/calcite.dat")
		if _, err := LoadBatch(context.Background(), cfg, nil); err == nil {
			t.Error("missing database should be an error")
		}
	})
}

func TestTemplate(t *testing.T) {
	var b bytes.Buffer
	if err := WriteTemplate(&b); err != nil {
		t.Fatal(err)
	}
	f := filepath.Join(t.TempDir(), "template.toml")
	if err := os.WriteFile(f, b.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := viper.New()
	cfg.SetConfigFile(f)
	if err := cfg.ReadInConfig(); err != nil {
		t.Fatalf("reading template: %v\n%s", err, b.String())
	}
	if cfg.GetFloat64("Porosity") != 1 || cfg.GetInt("OutputInterval") != 1 {
		t.Errorf("template defaults: porosity %v, output interval %v", cfg.Get("Porosity"), cfg.Get("OutputInterval"))
	}
	if tol := cfg.GetFloat64("Tolerance"); math.Abs(tol-1e-12) > 1e-20 {
		t.Errorf("tolerance: %g", tol)
	}
	if strings.Contains(b.String(), "convert") {
		t.Error("template should not contain command-only options")
	}
}
