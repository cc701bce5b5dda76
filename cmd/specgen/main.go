/*
Copyright © 2024 the isisengine authors.
This file is part of isisengine.

isisengine is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

isisengine is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with isisengine.  If not, see <http://www.gnu.org/licenses/>.*/

// Command specgen is a smoke-test harness around the isisengine packages:
// it loads a line database and an emissivity store from a NetCDF table
// source, evaluates a plasma model, and prints a summary. It is not a
// feature-complete spectral-fitting CLI; true command-line/config-file
// compatibility with any existing tool is out of scope.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/specmodel/isisengine/atomdb"
	"github.com/specmodel/isisengine/emisstore"
	"github.com/specmodel/isisengine/model"
	"github.com/specmodel/isisengine/plasma"
	"github.com/specmodel/isisengine/report"
	"github.com/specmodel/isisengine/tablesrc"
)

func main() {
	cfg := newCfg()
	root := buildRootCmd(cfg)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRootCmd(cfg *Cfg) *cobra.Command {
	root := &cobra.Command{
		Use:   "specgen",
		Short: "Smoke-test harness for the isisengine plasma emission spectrum library.",
		Long: `specgen loads an atomic line database and emissivity table source, evaluates
a plasma model, and prints a summary of the result.

Configuration can be supplied via a config file (--config), command-line
flags, or SPECGEN_-prefixed environment variables.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}
	root.PersistentFlags().String("config", "", "path to a TOML/YAML/JSON configuration file")
	cfg.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.AddCommand(newRunCmd(cfg))
	root.AddCommand(newDumpCmd(cfg))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version number",
		DisableAutoGenTag: true,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "specgen (isisengine) dev")
		},
	}
}

func newDumpCmd(cfg *Cfg) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Load the line database named by LineDatabase and print every line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg.BindPFlag("LineDatabase", cmd.Flags().Lookup("line-database"))
			db, err := loadDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			for l := range db.All() {
				fmt.Fprintln(cmd.OutOrStdout(), l.String())
			}
			return nil
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().String("line-database", "", "path to a NetCDF line/level database")
	cfg.BindPFlag("LineDatabase", cmd.Flags().Lookup("line-database"))
	return cmd
}

func newRunCmd(cfg *Cfg) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load atomic data, evaluate a plasma model, and print a flux summary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.BindPFlag("LineDatabase", cmd.Flags().Lookup("line-database"))
			return runModel(context.Background(), cfg, cmd.OutOrStdout())
		},
		DisableAutoGenTag: true,
	}
	cmd.Flags().String("line-database", "", "path to a NetCDF line/level database")
	cmd.Flags().String("table-source", "", "path to a NetCDF emissivity table source (defaults to --line-database)")
	cmd.Flags().String("plasma-file", "", "path to an ASCII plasma model record")
	cmd.Flags().Bool("line-resident", false, "hold every line-emissivity block in memory")
	cmd.Flags().Bool("continuum-resident", false, "hold every continuum-emissivity block in memory")
	cmd.Flags().Int("nbins", 200, "number of output wavelength bins")
	cmd.Flags().Float64("lo", 1.0, "low edge of the output wavelength range, Angstrom")
	cmd.Flags().Float64("hi", 20.0, "high edge of the output wavelength range, Angstrom")
	cmd.Flags().String("derived-config", "", "path to a TOML file of derived-variable expressions")
	cfg.BindPFlag("LineDatabase", cmd.Flags().Lookup("line-database"))
	cfg.BindPFlag("TableSource", cmd.Flags().Lookup("table-source"))
	cfg.BindPFlag("PlasmaFile", cmd.Flags().Lookup("plasma-file"))
	cfg.BindPFlag("LineResident", cmd.Flags().Lookup("line-resident"))
	cfg.BindPFlag("ContinuumResident", cmd.Flags().Lookup("continuum-resident"))
	cfg.BindPFlag("NBins", cmd.Flags().Lookup("nbins"))
	cfg.BindPFlag("Lo", cmd.Flags().Lookup("lo"))
	cfg.BindPFlag("Hi", cmd.Flags().Lookup("hi"))
	cfg.BindPFlag("DerivedConfig", cmd.Flags().Lookup("derived-config"))
	return cmd
}

func loadDatabase(ctx context.Context, cfg *Cfg) (*atomdb.Database, error) {
	path := cfg.GetString("LineDatabase")
	if path == "" {
		return nil, fmt.Errorf("specgen: LineDatabase is required")
	}
	src, err := tablesrc.NewCDFSource(path)
	if err != nil {
		return nil, err
	}
	return atomdb.Open(ctx, []atomdb.LevelSource{src}, []atomdb.LineSource{src})
}

func runModel(ctx context.Context, cfg *Cfg, out io.Writer) error {
	log := logrus.StandardLogger()
	rep := report.New(log, report.Warn)

	db, err := loadDatabase(ctx, cfg)
	if err != nil {
		rep.Fatalf("%v", err)
		return err
	}

	tablePath := cfg.GetString("TableSource")
	if tablePath == "" {
		tablePath = cfg.GetString("LineDatabase")
	}
	src, err := tablesrc.NewCDFSource(tablePath)
	if err != nil {
		return err
	}

	sCfg := emisstore.NewConfig()
	sCfg.LineResident = cfg.GetBool("LineResident")
	sCfg.ContinuumResident = cfg.GetBool("ContinuumResident")
	store, err := emisstore.Open(ctx, sCfg, src, db)
	if err != nil {
		return err
	}

	sum := store.Summary(ctx)
	fmt.Fprintf(out, "loaded %d lines, %d grid rows (%d temperatures x %d densities)\n",
		sum.NumLines, sum.NumRows, sum.NumTemps, sum.NumDensities)

	m, err := loadOrDefaultModel(cfg)
	if err != nil {
		return err
	}

	n := cfg.GetInt("NBins")
	lo, hi := cfg.GetFloat64("Lo"), cfg.GetFloat64("Hi")
	grid := make([]float64, n+1)
	for i := range grid {
		grid[i] = lo + (hi-lo)*float64(i)/float64(n)
	}
	loEdges, hiEdges := grid[:n], grid[1:]
	result := make([]float64, n)

	info := model.Qualifiers{ContribFlag: model.LinesAndContinuum}
	if dc, err := readDerivedConfig(cfg.GetString("DerivedConfig")); err != nil {
		return err
	} else if len(dc.Expression) > 0 {
		derived, err := model.NewDerivedSet(dc.Expression, nil)
		if err != nil {
			return err
		}
		info.Derived = derived
	}

	ev := model.NewEvaluator(db, store)
	ev.Log = log
	if err := ev.Eval(ctx, m, loEdges, hiEdges, info, result); err != nil {
		return err
	}

	if info.Derived != nil {
		for _, c := range m.Components() {
			for name, v := range c.DerivedFlux {
				fmt.Fprintf(out, "component %d: %s = %g\n", c.ID, name, v)
			}
		}
	}

	total := 0.0
	for _, v := range result {
		total += v
	}
	fmt.Fprintf(out, "evaluated %d component(s) over %d bins [%g, %g] A, total flux %g\n",
		len(m.Components()), n, lo, hi, total)
	return nil
}

func loadOrDefaultModel(cfg *Cfg) (*plasma.Model, error) {
	path := cfg.GetString("PlasmaFile")
	if path == "" {
		m := plasma.NewModel()
		m.AddComponent(1e7, 1e10, 1.0, 1.0, 0, 0, nil)
		return m, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("specgen: opening plasma file: %w", err)
	}
	defer f.Close()
	return plasma.ReadASCII(f, logrus.StandardLogger())
}
