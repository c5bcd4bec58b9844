package cli

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/merlin-energy/truequote/internal/engine"
	"github.com/merlin-energy/truequote/internal/logging"
	"github.com/merlin-energy/truequote/internal/metrics"
	"github.com/merlin-energy/truequote/internal/tui"
	"github.com/merlin-energy/truequote/internal/validation"
)

type validateFlags struct {
	fixtures     string
	report       string
	metricsFile  string
	pricingTable string
	parallel     int
	interactive  bool
	output       string
	statuses     []string
}

func newValidateCmd(a *app) *cobra.Command {
	var flags validateFlags

	cmd := &cobra.Command{
		Use:   "validate [industry...]",
		Short: "Run the validation harness over industry calculators",
		Long: `Runs a fixture request per industry through both quote layers and checks
the result against the physical invariants, the industry's expected bands and
its contributor mix.

With no arguments every template, fixture and skipped industry is covered.
Exit code is 0 when every row is PASS, PASS_WARN or SKIP, 1 when any row
FAILs and 2 when any row CRASHes.`,
		Example: `  truequote validate
  truequote validate hotel car_wash --output json
  truequote validate --report report.json --metrics-file truequote.prom
  truequote validate --parallel 8 --interactive
  truequote validate --status FAIL,PASS_WARN`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, a, flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.fixtures, "fixtures", "", "fixtures file (default: config, then built-in fixtures)")
	cmd.Flags().StringVar(&flags.report, "report", "", "write the JSON report to this file")
	cmd.Flags().StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus textfile metrics for the run")
	cmd.Flags().StringVar(&flags.pricingTable, "pricing-table", "", "pricing table file (overrides config)")
	cmd.Flags().IntVar(&flags.parallel, "parallel", 0, "industries to run at once (default from config)")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "browse the report in a terminal UI")
	cmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "output format: table or json")
	cmd.Flags().StringSliceVar(&flags.statuses, "status", nil, "only print rows with these statuses (e.g. FAIL,PASS_WARN); the report file and exit code still cover every row")

	return cmd
}

func runValidate(cmd *cobra.Command, a *app, flags validateFlags, args []string) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	if flags.output != outputTable && flags.output != outputJSON {
		return fmt.Errorf("unsupported output format %q", flags.output)
	}
	statuses := make([]validation.Status, 0, len(flags.statuses))
	for _, name := range flags.statuses {
		st, err := validation.ParseStatus(name)
		if err != nil {
			return err
		}
		statuses = append(statuses, st)
	}

	err := executeValidate(cmd, a, flags, statuses, args)
	var exitErr *ExitError
	if err == nil || errors.As(err, &exitErr) {
		return err
	}
	log.Error().Ctx(ctx).Str("operation", "validate").Err(err).Msg("validation harness crashed")
	return &ExitError{Code: validation.ExitCrash, Reason: err.Error(), Err: err}
}

// executeValidate runs the harness. Any error it returns other than an
// *ExitError means the harness itself could not run.
func executeValidate(cmd *cobra.Command, a *app, flags validateFlags, statuses []validation.Status, args []string) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	fixtures, err := a.fixtures(flags.fixtures)
	if err != nil {
		return err
	}

	var rec *metrics.Metrics
	var engOpts []engine.Option
	if flags.metricsFile != "" {
		rec = metrics.New(false)
		engOpts = append(engOpts, engine.WithRecorder(rec))
	}
	eng, err := a.engine(ctx, flags.pricingTable, engOpts...)
	if err != nil {
		return err
	}

	parallel := a.cfg.Validation.Parallelism
	if flags.parallel > 0 {
		parallel = flags.parallel
	}
	opts := []validation.Option{validation.WithParallelism(parallel)}
	if rec != nil {
		opts = append(opts, validation.WithRecorder(rec))
	}
	if errOut := cmd.ErrOrStderr(); !flags.interactive && isTerminal(errOut) {
		var mu sync.Mutex
		opts = append(opts, validation.WithProgress(func(p validation.Progress) {
			mu.Lock()
			defer mu.Unlock()
			if p.Complete {
				fmt.Fprint(errOut, "\r\033[K")
				return
			}
			fmt.Fprintf(errOut, "\rvalidating %d/%d (%.0f%%, %s)", p.Done, p.Total, p.Percent, p.Elapsed.Round(time.Millisecond))
		}))
	}
	runner, err := validation.NewRunner(eng, a.cfg.Validation.Policy(), opts...)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(args))
	for _, arg := range args {
		ids = append(ids, strings.ToLower(arg))
	}
	rep, err := runner.Validate(ctx, ids, fixtures)
	if err != nil {
		return err
	}

	if flags.report != "" {
		if err := rep.WriteFile(flags.report); err != nil {
			return err
		}
	}
	if rec != nil {
		if err := rec.WriteTextfile(flags.metricsFile); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	switch {
	case flags.interactive:
		err = tui.Run(ctx, rep, cmd.InOrStdin(), out)
	case flags.output == outputJSON:
		err = rep.Filter(statuses...).WriteJSON(out)
	default:
		err = renderScoreboard(out, styler{styled: isTerminal(out)}, rep.Filter(statuses...))
	}
	if err != nil {
		return err
	}

	log.Info().
		Ctx(ctx).
		Str("operation", "validate").
		Str("run_id", rep.RunID).
		Int("industries", rep.Summary.Total).
		Str("worst", string(rep.Summary.Worst)).
		Msg("validation finished")

	if code := rep.ExitCode(); code != validation.ExitOK {
		return &ExitError{Code: code}
	}
	return nil
}

// fixtures loads fixtures from override, the configured path, or the
// built-in set, in that order.
func (a *app) fixtures(override string) (validation.Fixtures, error) {
	path := override
	if path == "" {
		path = a.cfg.Validation.FixturesPath
	}
	if path == "" {
		return validation.DefaultFixtures()
	}
	return validation.LoadFixtures(path)
}
