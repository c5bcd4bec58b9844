package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/merlin-energy/truequote/internal/engine/cache"
	"github.com/merlin-energy/truequote/internal/pricing"
	"github.com/merlin-energy/truequote/internal/templates"
)

// CacheDirectory returns the template cache directory, defaulting to
// Dir()/cache.
func (t TemplatesConfig) CacheDirectory() (string, error) {
	if t.CacheDir != "" {
		return t.CacheDir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}

// CacheStore opens the template cache store.
func (t TemplatesConfig) CacheStore() (*cache.FileStore, error) {
	dir, err := t.CacheDirectory()
	if err != nil {
		return nil, err
	}
	return cache.NewFileStore(dir, t.CacheEnabled, t.CacheTTLSeconds)
}

// Source builds the configured template source. The returned close function
// releases the database handle of an SQL source and is never nil.
//
// Only the SQL source is cached; the embedded and file sources are already
// local.
func (t TemplatesConfig) Source() (templates.Source, func() error, error) {
	noop := func() error { return nil }

	switch {
	case t.Path != "":
		return templates.FileSource{Path: t.Path}, noop, nil
	case t.DSN == "":
		return templates.EmbeddedSource{}, noop, nil
	}

	db, err := templates.OpenDB(t.DSN)
	if err != nil {
		return nil, noop, err
	}
	closeDB := func() error { return db.Close() }

	var src templates.Source = templates.SQLSource{DB: db, Label: dsnLabel(t.DSN)}
	if !t.CacheEnabled {
		return src, closeDB, nil
	}
	store, err := t.CacheStore()
	if err != nil {
		_ = db.Close()
		return nil, noop, fmt.Errorf("opening template cache: %w", err)
	}
	return templates.CachedSource{Source: src, Store: store}, closeDB, nil
}

// dsnLabel names an SQL source without exposing credentials in logs. The
// hash keeps distinct databases apart in the cache.
func dsnLabel(dsn string) string {
	scheme := "sqlite"
	if i := strings.Index(dsn, "://"); i > 0 {
		scheme = dsn[:i]
	}
	return scheme + ":" + cache.KeyFor(dsn)[:8]
}

// Table loads the configured pricing table, or the embedded one.
func (p PricingConfig) Table() (*pricing.Table, error) {
	if p.TablePath == "" {
		return pricing.DefaultTable()
	}
	return pricing.LoadTable(p.TablePath)
}
