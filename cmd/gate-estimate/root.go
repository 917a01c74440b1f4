package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/gate-estimate/internal/config"
	"github.com/robert-at-pretension-io/gate-estimate/internal/costs"
	"github.com/robert-at-pretension-io/gate-estimate/internal/estimator"
	"github.com/robert-at-pretension-io/gate-estimate/internal/policy"
	"github.com/robert-at-pretension-io/gate-estimate/internal/report"
	"github.com/robert-at-pretension-io/gate-estimate/internal/validator"
)

// errBudgetExceeded is returned after the violations have been printed.
var errBudgetExceeded = errors.New("budget exceeded")

type options struct {
	configPath    string
	profile       string
	noDoubleCount bool
	jsonOutput    bool
	verbose       bool
	maxGates      int
	maxDelay      int
	policyDir     string
	timingPath    string
	deltaFrom     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gate-estimate [flags] <path>",
		Short: "Estimate gate count and delay of HDL source by keyword costs",
		Long: `gate-estimate counts whole-word occurrences of known constructs in a
source file (or every matching file under a directory) and weights them with
a cost table.

Configuration is searched in:
  1. ./gate_estimate.json, ./.gate_estimate.json, ./gate_estimate.yaml
  2. the same names in <path>, when <path> is a directory
  3. ~/.config/gate_estimate/config.json

Run 'gate-estimate init' to create a default configuration file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd.Context(), cmd, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default: search standard locations)")
	flags.StringVarP(&opts.profile, "profile", "p", "", "cost profile to use (see 'gate-estimate profiles')")
	flags.BoolVar(&opts.noDoubleCount, "no-double-count", false, "count primitive gates only once")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print the report as JSON")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print a per-construct breakdown and debug logs")
	flags.IntVar(&opts.maxGates, "max-gates", 0, "gate budget (0 = unlimited)")
	flags.IntVar(&opts.maxDelay, "max-delay", 0, "delay budget (0 = unlimited)")
	flags.StringVar(&opts.policyDir, "policy-dir", "", "directory of extra .rego budget policies")
	flags.StringVar(&opts.timingPath, "timing", "", "write per-file timing events as JSON lines to this file")
	flags.StringVar(&opts.deltaFrom, "delta-from", "", "previous JSON report to compare against")

	cmd.AddCommand(newInitCmd(), newProfilesCmd(opts))
	return cmd
}

func setupLogging(w io.Writer, verbose bool) {
	logrus.SetOutput(w)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

// loadConfig uses the explicit config file when given, otherwise the search path.
func loadConfig(opts *options, path string) (*config.Config, error) {
	if opts.configPath != "" {
		cfg, err := config.LoadFile(opts.configPath)
		if err != nil {
			return nil, errors.Wrapf(err, "loading config %s", opts.configPath)
		}
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		logrus.WithError(err).Warn("could not load config, using defaults")
		cfg = config.DefaultConfig()
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("profile") {
		cfg.Profile = opts.profile
	}
	if flags.Changed("no-double-count") {
		double := !opts.noDoubleCount
		cfg.DoubleCountPrimitives = &double
	}
	if flags.Changed("max-gates") {
		cfg.Budget.MaxGates = opts.maxGates
	}
	if flags.Changed("max-delay") {
		cfg.Budget.MaxDelay = opts.maxDelay
	}
	if flags.Changed("policy-dir") {
		cfg.PolicyDir = opts.policyDir
	}
}

func runEstimate(ctx context.Context, cmd *cobra.Command, opts *options, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	setupLogging(cmd.ErrOrStderr(), opts.verbose)

	cfg, err := loadConfig(opts, path)
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, cfg)

	profile, err := cfg.ResolveProfile()
	if err != nil {
		return err
	}

	inputs, err := cfg.ResolveInputs(path)
	if err != nil {
		return errors.Wrapf(err, "resolving inputs in %s", path)
	}
	if len(inputs) == 0 {
		return errors.Errorf("no source files found in %s", path)
	}
	log := logrus.WithFields(logrus.Fields{"profile": profile.Name})
	log.WithField("files", len(inputs)).Debug("resolved inputs")

	est := estimator.New(profile)
	est.DoubleCountPrimitives = cfg.DoubleCount()
	est.TimingPath = opts.timingPath
	est.Logger = log

	results, missing, err := est.EstimateAll(inputs)
	if err != nil {
		return err
	}

	rep := report.Build(profile, est.DoubleCountPrimitives, results, missing)

	var verdict *policy.Result
	if rep.HasTotals() && (cfg.Budget.MaxGates > 0 || cfg.Budget.MaxDelay > 0 || cfg.PolicyDir != "") {
		engine, err := policy.New(cfg.PolicyDir)
		if err != nil {
			return errors.Wrap(err, "loading policies")
		}
		res, err := engine.Evaluate(ctx, rep.PolicyInput(policy.Budget{
			MaxGates: cfg.Budget.MaxGates,
			MaxDelay: cfg.Budget.MaxDelay,
		}))
		if err != nil {
			return errors.Wrap(err, "evaluating policies")
		}
		rep.ApplyPolicy(res)
		verdict = res
	}

	if opts.deltaFrom != "" {
		prev, err := report.ReadJSON(opts.deltaFrom)
		if err != nil {
			return err
		}
		d := report.ComputeDelta(prev, rep)
		rep.Delta = &d
	}

	if opts.jsonOutput {
		for _, m := range rep.Missing {
			fmt.Fprintln(cmd.ErrOrStderr(), report.NotFoundMessage(m))
		}
		v, err := validator.New()
		if err != nil {
			return err
		}
		if err := v.ValidateReport(rep); err != nil {
			return errors.Wrap(err, "report does not match its schema")
		}
		if err := report.WriteJSON(out, rep); err != nil {
			return errors.Wrap(err, "writing report")
		}
	} else if err := report.WriteText(out, rep, opts.verbose); err != nil {
		return errors.Wrap(err, "writing report")
	}

	if verdict.HasErrors() {
		return errBudgetExceeded
	}
	return nil
}

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a " + config.FileName + " configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout(), config.FileName, force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file without asking")
	return cmd
}

func runInit(in io.Reader, out io.Writer, configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Fprintf(out, "Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		_, _ = fmt.Fscanln(in, &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		return errors.Wrap(err, "creating config")
	}

	fmt.Fprintf(out, "Created %s\n", configPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - The cost profile and custom cost tables")
	fmt.Fprintln(out, "  - Source file globs for directory input")
	fmt.Fprintln(out, "  - Gate and delay budgets")
	return nil
}

func newProfilesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the available cost profiles and their tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, ".")
			if err != nil {
				return err
			}
			return writeProfiles(cmd.OutOrStdout(), cfg)
		},
	}
}

func writeProfiles(out io.Writer, cfg *config.Config) error {
	for _, name := range cfg.ProfileNames() {
		sel := *cfg
		sel.Profile = name
		p, err := sel.ResolveProfile()
		if err != nil {
			return err
		}
		marker := ""
		if name == cfg.Profile {
			marker = " (selected)"
		}
		fmt.Fprintf(out, "=== %s%s ===\n", name, marker)
		for _, e := range p.Table.Entries() {
			fmt.Fprintf(out, "  %-20s gates=%-6d%s\n", e.Name, e.Cost.Gates, delayColumn(p, e.Cost))
		}
	}
	return nil
}

func delayColumn(p costs.Profile, c costs.Cost) string {
	if !p.TrackDelay {
		return ""
	}
	return fmt.Sprintf(" delay=%d", c.Delay)
}
