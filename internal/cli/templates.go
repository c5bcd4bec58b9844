package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/merlin-energy/truequote/internal/engine/cache"
)

const outputYAML = "yaml"

func newTemplatesCmd(a *app) *cobra.Command {
	var cacheTTL string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect industry templates and the template cache",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if root := cmd.Root(); root.PersistentPreRunE != nil {
				if err := root.PersistentPreRunE(cmd, args); err != nil {
					return err
				}
			}
			if cacheTTL == "" {
				return nil
			}
			seconds, err := cache.ParseTTL(cacheTTL)
			if err != nil {
				return err
			}
			a.cfg.Templates.CacheTTLSeconds = seconds
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cacheTTL, "cache-ttl", "", "template cache lifetime, seconds or duration (e.g. 12h)")

	cmd.AddCommand(newTemplatesListCmd(a), newTemplatesShowCmd(a), newTemplatesCacheCmd(a))
	return cmd
}

func newTemplatesListCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List industry templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch output {
			case outputJSON:
				return writeJSON(out, reg.All())
			case outputTable:
			default:
				return fmt.Errorf("unsupported output format %q", output)
			}

			s := styler{styled: isTerminal(out)}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, s.header("INDUSTRY")+"\t"+s.header("NAME")+"\t"+s.header("CALCULATOR")+"\t"+s.header("FIELDS"))
			for _, tpl := range reg.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", tpl.IndustryID, tpl.DisplayName, tpl.CalculatorID, len(tpl.ExpectedFields))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}

func newTemplatesShowCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <industry>",
		Short: "Print one template with its fields and defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd.Context())
			if err != nil {
				return err
			}
			tpl, err := reg.GetTemplate(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch output {
			case outputJSON:
				return writeJSON(out, tpl)
			case outputYAML:
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(tpl); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unsupported output format %q", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputYAML, "output format: yaml or json")
	return cmd
}

func newTemplatesCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the template cache used for SQL sources",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the cache directory, lifetime and entry count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.cfg.Templates.CacheStore()
			if err != nil {
				return err
			}
			dir, err := a.cfg.Templates.CacheDirectory()
			if err != nil {
				return err
			}
			s := styler{styled: isTerminal(cmd.OutOrStdout())}
			var b strings.Builder
			b.WriteString(s.label("Directory") + dir + "\n")
			if !store.IsEnabled() {
				b.WriteString(s.label("Enabled") + "no\n")
				_, err := fmt.Fprint(cmd.OutOrStdout(), b.String())
				return err
			}
			snaps, err := store.List()
			if err != nil {
				return err
			}
			b.WriteString(s.label("Enabled") + "yes\n")
			b.WriteString(s.label("TTL") + cache.FormatDuration(store.TTL()) + "\n")
			b.WriteString(s.label("Entries") + fmt.Sprint(len(snaps)) + "\n")
			now := store.Now()
			for _, snap := range snaps {
				state := "expires in " + cache.FormatDuration(snap.Remaining(now))
				if snap.Expired(now) {
					state = "expired"
				}
				fmt.Fprintf(&b, "    %s  stored %s ago, %s\n", snap.Source, cache.FormatDuration(snap.Age(now)), state)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached template snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.cfg.Templates.CacheStore()
			if err != nil {
				return err
			}
			n, err := store.Clear()
			if errors.Is(err, cache.ErrCacheDisabled) {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "template cache is disabled")
				return err
			}
			if err != nil {
				return err
			}
			logger.Info().Ctx(cmd.Context()).Int("removed", n).Msg("template cache cleared")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached snapshot(s)\n", n)
			return err
		},
	}

	cmd.AddCommand(statusCmd, clearCmd)
	return cmd
}
