package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/merlin-energy/truequote/internal/engine"
	"github.com/merlin-energy/truequote/internal/pricing"
	"github.com/merlin-energy/truequote/internal/templates"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// registry loads the configured template registry.
func (a *app) registry(ctx context.Context) (*templates.Registry, error) {
	src, closeSrc, err := a.cfg.Templates.Source()
	if err != nil {
		return nil, err
	}
	reg, err := templates.NewRegistry(ctx, src)
	return reg, errors.Join(err, closeSrc())
}

// table loads the pricing table, preferring override when set.
func (a *app) table(override string) (*pricing.Table, error) {
	if override != "" {
		return pricing.LoadTable(override)
	}
	return a.cfg.Pricing.Table()
}

// engine builds a quote engine from configuration.
func (a *app) engine(ctx context.Context, pricingOverride string, opts ...engine.Option) (*engine.Engine, error) {
	reg, err := a.registry(ctx)
	if err != nil {
		return nil, err
	}
	table, err := a.table(pricingOverride)
	if err != nil {
		return nil, fmt.Errorf("loading pricing table: %w", err)
	}
	return engine.New(reg, table, opts...)
}
