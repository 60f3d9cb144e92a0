package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mtrack/mortgage-engine/internal/calculation"
	"github.com/mtrack/mortgage-engine/internal/config"
	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/mtrack/mortgage-engine/internal/output"
	"github.com/mtrack/mortgage-engine/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// skipPortfolio annotates commands that run without loading a portfolio
const skipPortfolio = "skip-portfolio"

// app is the state shared by every subcommand once the portfolio is loaded
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile string
	envFile    string
	saveDir    string

	settings *config.Settings
	logger   *cliLogger
	store    *store.Memory
	engine   *calculation.Engine
	clock    calculation.Clock
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "mortgagectl",
		Short:         "Mortgage, HELOC and Smith Maneuver calculations over a portfolio file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Flags(), cmd.Annotations[skipPortfolio] != "true")
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "settings file (yaml, json or toml)")
	pf.StringVar(&a.envFile, "env-file", "", "dotenv file with MORTGAGE_* defaults")
	pf.StringVar(&a.saveDir, "save-dir", "", "also write the report to a timestamped file in this directory")
	pf.String("portfolio", "portfolio.yaml", "portfolio YAML file")
	pf.String("format", "console", fmt.Sprintf("output format (%s)", strings.Join(output.AvailableFormatterNames(), ", ")))
	pf.String("reference-rate", "", "override the portfolio's reference rate, in percent")
	pf.String("as-of", "", "evaluation date YYYY-MM-DD (default today)")
	pf.BoolP("verbose", "v", false, "log debug output to stderr")
	pf.Int("concurrency", 4, "parallel workers for batch trigger checks")

	root.AddCommand(
		a.triggerCmd(),
		a.triggerAllCmd(),
		a.roomCmd(),
		a.projectCmd(),
		a.roiCmd(),
		a.compareCmd(),
		a.insuranceCmd(),
		a.drawPeriodCmd(),
		a.impactCmd(),
		a.helocCmd(),
		a.exampleCmd(),
	)
	return root
}

// bindFlags exposes every flag to viper under its underscore key, so --reference-rate
// and MORTGAGE_REFERENCE_RATE land on the same setting.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

// setup resolves settings and, unless the command opts out, loads the portfolio
func (a *app) setup(flags *pflag.FlagSet, withPortfolio bool) error {
	v, err := config.NewViper(a.configFile)
	if err != nil {
		return err
	}
	if a.envFile != "" {
		if err := config.ReadEnvFile(v, a.envFile); err != nil {
			return err
		}
	}
	if err := bindFlags(v, flags); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	settings, err := config.LoadSettings(v)
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger = newCLILogger(a.stderr, settings.Verbose)

	asOf, _ := settings.AsOfTime()
	a.clock = time.Now
	if !asOf.IsZero() {
		a.clock = func() time.Time { return asOf }
	}

	if !withPortfolio {
		return nil
	}
	return a.loadPortfolio()
}

// loadPortfolio reads the portfolio file into the store and wires the engine over it
func (a *app) loadPortfolio() error {
	portfolio, err := config.NewInputParser().LoadFromFile(a.settings.Portfolio)
	if err != nil {
		return err
	}
	a.store = store.NewMemory(portfolio)

	override, _ := a.settings.ReferenceRateOverride()
	if override != nil {
		a.store.SetReferenceRate(domain.ReferenceRate{Rate: *override, AsOf: a.clock(), Label: "override"})
	}

	ports := calculation.Ports{
		Mortgages:   a.store,
		Helocs:      a.store,
		Strategies:  a.store,
		CashFlows:   a.store,
		ImpactCache: calculation.NewMemoryImpactCache(),
		Clock:       a.clock,
	}
	// without any reference rate the trigger checks fall back to each term's own snapshot
	if portfolio.ReferenceRate != nil || override != nil {
		ports.Rates = a.store
	} else {
		a.logger.Warnf("no reference rate in %s; operations that need one will fail", a.settings.Portfolio)
	}

	a.engine = calculation.NewEngine(ports)
	a.engine.TaxYear = portfolio.TaxYear
	a.engine.SetLogger(a.logger)
	a.engine.SetConcurrency(a.settings.Concurrency)
	a.logger.Debugf("loaded %d mortgages and %d HELOC accounts from %s",
		len(portfolio.Mortgages), len(portfolio.HelocAccounts), a.settings.Portfolio)
	return nil
}

// newReport starts a report stamped with the evaluation time and current reference rate
func (a *app) newReport(title string) *output.Report {
	r := output.NewReport(title, a.clock())
	if a.store == nil {
		return r
	}
	if ref, err := a.store.CurrentReferenceRate(context.Background()); err == nil {
		r.ReferenceRate = &ref.Rate
	}
	return r
}

// render prints the report in the configured format and saves a copy when asked to
func (a *app) render(r *output.Report) error {
	format := "console"
	if a.settings != nil {
		format = a.settings.Format
	}
	data, err := output.Render(r, format)
	if err != nil {
		return err
	}
	if _, err := a.stdout.Write(data); err != nil {
		return err
	}
	if a.saveDir == "" {
		return nil
	}
	f := output.GetFormatterByName(format)
	path, err := output.WriteFormatted(f, r, a.saveDir, output.FileExtension(f))
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	a.logger.Infof("report written to %s", path)
	return nil
}

// persist writes the store back to the portfolio file
func (a *app) persist() error {
	snapshot := a.store.Snapshot()
	if err := output.SavePortfolio(&snapshot, a.settings.Portfolio); err != nil {
		return fmt.Errorf("save portfolio: %w", err)
	}
	a.logger.Infof("portfolio saved to %s", a.settings.Portfolio)
	return nil
}
