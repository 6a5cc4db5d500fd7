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

// Package beakerutil contains the command-line interface of the Beaker
// batch chemistry driver.
package beakerutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/beaker"
	"github.com/spatialmodel/beaker/thermo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Databases holds the reaction networks read by the commands.
var Databases = thermo.NewLoader(4)

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to Beaker.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Verbosity",
			usage: `
              Verbosity is a list of diagnostic output levels to enable, for
              example "verbose,debug_newton_solver". Valid levels are silent,
              terse, verbose, debug, debug_beaker, debug_database,
              debug_mineral_kinetics, debug_ion_exchange, debug_newton_solver,
              debug_driver and error.`,
			shorthand:  "v",
			defaultVal: []string{"terse"},
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Database",
			usage: `
              Database is the path to the thermodynamic database file. It can
              include environment variables.`,
			shorthand:  "d",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DatabaseFormat",
			usage: `
              DatabaseFormat is the format of the database file, either "simple"
              or "toml". If empty, files ending in ".toml" are read as TOML and
              all other files in the simple format.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), databaseCmd.Flags()},
		},
		{
			name: "ActivityModel",
			usage: `
              ActivityModel is the activity coefficient model: "unit",
              "debye-huckel" or "davies".`,
			defaultVal: "debye-huckel",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Porosity",
			usage: `
              Porosity is the pore volume fraction of the control volume [-].`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Saturation",
			usage: `
              Saturation is the water-filled fraction of the pore volume [-].`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Volume",
			usage: `
              Volume is the bulk volume of the control volume [m³].`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "WaterDensity",
			usage: `
              WaterDensity is the density of water [kg/m³]. It is ignored if
              ComparisonModel is set.`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ComparisonModel",
			usage: `
              ComparisonModel sets model-specific parameters for comparing
              results with another code. Valid options are "pflotran" and
              "crunch", or empty for none.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Tolerance",
			usage: `
              Tolerance is the convergence criterion of the Newton solver on
              the relative residual norm.`,
			defaultVal: 1.0e-12,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MaxIterations",
			usage: `
              MaxIterations is the maximum number of Newton iterations per
              solve.`,
			defaultVal: 250,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MaxLnChange",
			usage: `
              MaxLnChange is the largest change in the natural log of a
              free-ion concentration allowed in one Newton iteration.`,
			defaultVal: 5.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "DeltaTime",
			usage: `
              DeltaTime is the time step length [s].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "NumTimeSteps",
			usage: `
              NumTimeSteps is the number of reaction time steps. If it is zero
              only the initial speciation is calculated.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputInterval",
			usage: `
              OutputInterval is the number of time steps between outputs.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MaxStepRetries",
			usage: `
              MaxStepRetries is the number of times a time step that does not
              converge is retried, each time with twice as many sub-steps.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Total",
			usage: `
              Total holds the total aqueous concentration of each primary
              species [mol/kg water], keyed by species name. Species names are
              matched without regard to case.`,
			defaultVal: map[string]float64{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "FreeIon",
			usage: `
              FreeIon holds initial guesses of the free-ion concentration of
              primary species [mol/kg water]. Missing species start at 1e-9.`,
			defaultVal: map[string]float64{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Minerals",
			usage: `
              Minerals holds the volume fraction of each mineral [m³/m³ bulk].`,
			defaultVal: map[string]float64{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TotalSorbed",
			usage: `
              TotalSorbed holds the sorbed concentration of primary species
              [mol/m³ bulk].`,
			defaultVal: map[string]float64{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "IonExchangeSites",
			usage: `
              IonExchangeSites holds the cation exchange capacity of each ion
              exchange site [eq/m³ bulk].`,
			defaultVal: map[string]float64{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "MineralSSA",
			usage: `
              MineralSSA holds the reactive specific surface area of minerals
              [m²/m³ bulk]. Minerals that are not listed use the database
              value.`,
			defaultVal: map[string]float64{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "SiteDensity",
			usage: `
              SiteDensity holds the density of each surface complexation site
              [mol/m³ bulk].`,
			defaultVal: map[string]float64{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TextOutput",
			usage: `
              TextOutput is the path of a comma-separated file to write the
              time series of totals to. If empty, no file is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "TextTimeUnits",
			usage: `
              TextTimeUnits are the time units of the output files: s, min, h,
              d or y.`,
			defaultVal: "s",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "XLSXOutput",
			usage: `
              XLSXOutput is the path of an Excel file to write the time series
              to. If empty, no file is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotOutput",
			usage: `
              PlotOutput is the path of a PNG file to plot the time series of
              total concentrations in. If empty, no plot is made.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables holds additional output columns, keyed by name,
              as expressions of the solution. Available variables are a_X
              (activity), m_X (free-ion molality), T_X (total), S_X (sorbed),
              vf_M (mineral volume fraction), SI_M (saturation index), I
              (ionic strength) and t (time), where X is a primary species and
              M a mineral name with characters other than letters, digits and
              underscores removed. For example, {"pH": "-log10(a_H)"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "convert",
			usage: `
              convert is the path of a file to write the database to after
              reading it. Files ending in ".toml" are written as TOML and all
              other files in the simple format.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{databaseCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("BEAKER")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string, map[string]float64:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(bytes.TrimSpace(b.Bytes()))
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(templateCmd)
	Root.AddCommand(databaseCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("beaker: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// newOutput creates the diagnostic output for a command, with the levels
// named in the Verbosity option enabled.
func newOutput(cmd *cobra.Command) (*beaker.Output, error) {
	out := beaker.NewOutput(cmd.OutOrStdout())
	levels, err := verbosity(Cfg)
	if err != nil {
		return nil, err
	}
	if err := out.SetLevels(levels...); err != nil {
		return nil, err
	}
	return out, nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "beaker",
	Short: "A batch geochemistry solver.",
	Long: `Beaker calculates the equilibrium speciation of an aqueous solution and
integrates kinetic mineral reactions over time in a single control volume.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'BEAKER_var' where 'var' is the
name of the variable to be set. Map-valued options are given on the command line
as JSON objects, for example --Total='{"H+": 1e-3}'.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Beaker.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Beaker v%s\n", beaker.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that runs a batch simulation.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch simulation.",
	Long: `run speciates the solution described in the configuration, then
advances kinetic reactions for NumTimeSteps steps of DeltaTime seconds,
writing the totals every OutputInterval steps, and finally speciates the
solution again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := newOutput(cmd)
		if err != nil {
			return err
		}
		defer out.Close()
		b, err := LoadBatch(context.TODO(), Cfg, out)
		if err != nil {
			out.Printf(beaker.Error, "%v", err)
			return err
		}
		if _, err := b.Run(out); err != nil {
			out.Printf(beaker.Error, "%v", err)
			out.Printf(beaker.Verbose, "Failed!")
			return err
		}
		out.Printf(beaker.Verbose, "Success!")
		return nil
	},
	DisableAutoGenTag: true,
}

// templateCmd is a command that writes an example configuration file.
var templateCmd = &cobra.Command{
	Use:   "template FILE",
	Short: "Write a template configuration file.",
	Long: `template writes an example batch configuration file, listing every
configuration option with its default value, to FILE.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("beaker: creating template file: %v", err)
		}
		if err := WriteTemplate(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
	DisableAutoGenTag: true,
}

// databaseCmd is a command that checks and displays a database.
var databaseCmd = &cobra.Command{
	Use:   "database FILE",
	Short: "Read and display a thermodynamic database.",
	Long: `database reads the thermodynamic database in FILE, checks it for
consistency, and displays the reaction network. If --convert is given, the
database is also written to that file, which can be used to convert between
the simple and TOML formats.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := newOutput(cmd)
		if err != nil {
			return err
		}
		defer out.Close()
		path := os.ExpandEnv(args[0])
		format := thermo.FormatOf(path, Cfg.GetString("DatabaseFormat"))
		net, err := Databases.Load(context.TODO(), path, format, out)
		if err != nil {
			return err
		}
		net.Display(cmd.OutOrStdout())
		if convert := os.ExpandEnv(Cfg.GetString("convert")); convert != "" {
			return convertDatabase(path, format, convert)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

// convertDatabase rewrites the database at path in the format implied by
// the extension of dst.
func convertDatabase(path, format, dst string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var db *thermo.Database
	if strings.EqualFold(format, thermo.TOML) {
		db, err = thermo.ReadTOML(f, path)
	} else {
		db, err = thermo.ReadSimple(f, path)
	}
	if err != nil {
		return err
	}
	w, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("beaker: creating converted database: %v", err)
	}
	if thermo.FormatOf(dst, "") == thermo.TOML {
		err = thermo.WriteTOML(w, db)
	} else {
		err = thermo.WriteSimple(w, db)
	}
	if err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
