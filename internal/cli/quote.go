package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/merlin-energy/truequote/internal/answers"
	"github.com/merlin-energy/truequote/internal/engine"
	"github.com/merlin-energy/truequote/internal/logging"
)

// ErrInvalidAnswer is returned for a malformed --answer flag.
var ErrInvalidAnswer = errors.New("answer must be name=value")

type quoteFlags struct {
	industry     string
	answersFile  string
	answers      []string
	zip          string
	state        string
	output       string
	pricingTable string
	traceFile    string
	contractOnly bool
}

func newQuoteCmd(a *app) *cobra.Command {
	var flags quoteFlags

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Produce a load profile and priced quote for one facility",
		Long: `Runs the industry calculator on the given answers, checks the load profile
against the global physical invariants and, unless one is violated, sizes and
prices a battery system.

Missing answers are filled from the template defaults and listed under
"Defaults used". The command exits 1 when the load profile hard-fails.`,
		Example: `  truequote quote --industry hotel --answer rooms=120 --answer amenities=[pool,spa] --state NV
  truequote quote --industry car_wash --answers wash.yaml --output json
  truequote quote --industry data_center --answer rackCount=40 --contract-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuote(cmd, a, flags)
		},
	}

	cmd.Flags().StringVar(&flags.industry, "industry", "", "industry id (see 'truequote templates list')")
	cmd.Flags().StringVar(&flags.answersFile, "answers", "", "YAML or JSON file of questionnaire answers")
	cmd.Flags().StringArrayVar(&flags.answers, "answer", nil, "answer as name=value, repeatable; values are parsed as YAML scalars or lists")
	cmd.Flags().StringVar(&flags.zip, "zip", "", "facility ZIP code")
	cmd.Flags().StringVar(&flags.state, "state", "", "two-letter state code, used for utility rate defaults")
	cmd.Flags().StringVarP(&flags.output, "output", "o", outputTable, "output format: table or json")
	cmd.Flags().StringVar(&flags.pricingTable, "pricing-table", "", "pricing table file (overrides config)")
	cmd.Flags().StringVar(&flags.traceFile, "trace-file", "", "append the full response as a JSON line to this file")
	cmd.Flags().BoolVar(&flags.contractOnly, "contract-only", false, "stop after the load profile; skip pricing")
	_ = cmd.MarkFlagRequired("industry")

	return cmd
}

func runQuote(cmd *cobra.Command, a *app, flags quoteFlags) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	if flags.output != outputTable && flags.output != outputJSON {
		return fmt.Errorf("unsupported output format %q", flags.output)
	}

	set, err := buildAnswers(flags.answersFile, flags.answers)
	if err != nil {
		return err
	}

	var opts []engine.Option
	if flags.traceFile != "" {
		f, err := os.OpenFile(flags.traceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening trace file: %w", err)
		}
		defer f.Close()
		opts = append(opts, engine.WithTraceSink(engine.NewJSONLSink(f)))
	}

	eng, err := a.engine(ctx, flags.pricingTable, opts...)
	if err != nil {
		return err
	}

	req := engine.Request{
		IndustryID:    flags.industry,
		Answers:       set,
		LocationZip:   flags.zip,
		LocationState: strings.ToUpper(flags.state),
	}
	out := cmd.OutOrStdout()
	s := styler{styled: isTerminal(out)}

	var trace engine.Trace
	if flags.contractOnly {
		cr, err := eng.RunContractQuote(ctx, req)
		if err != nil {
			return err
		}
		trace = cr.Trace
		if flags.output == outputJSON {
			err = writeJSON(out, cr)
		} else {
			err = renderContract(out, s, cr)
		}
		if err != nil {
			return err
		}
	} else {
		resp, err := eng.Quote(ctx, req)
		if err != nil {
			return err
		}
		trace = resp.Trace
		if flags.output == outputJSON {
			err = writeJSON(out, resp)
		} else {
			err = renderQuote(out, s, resp)
		}
		if err != nil {
			return err
		}
	}

	log.Info().
		Ctx(ctx).
		Str("operation", "quote").
		Str("industry", req.IndustryID).
		Int("fallback_count", len(trace.InputFallbacks)).
		Bool("hard_failed", trace.HardFailed()).
		Msg("quote finished")

	if trace.HardFailed() {
		return &ExitError{Code: 1, Reason: strings.Join(trace.HardFailures, "; ")}
	}
	return nil
}

// buildAnswers merges an answers file with --answer flags; flags win.
func buildAnswers(path string, pairs []string) (answers.AnswerSet, error) {
	set := answers.AnswerSet{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading answers: %w", err)
		}
		if err := yaml.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("parsing answers %s: %w", path, err)
		}
	}
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidAnswer, pair)
		}
		set[name] = parseAnswerValue(raw)
	}
	return set, nil
}

// parseAnswerValue reads raw as a YAML value so numbers, booleans and
// [a,b] lists keep their types. Anything else stays a string.
func parseAnswerValue(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	switch v.(type) {
	case map[string]any:
		return raw
	}
	return v
}
