// Package backend opens the sample store selected by configuration, either
// Postgres or the local SQLite file.
package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store/sqlite"
)

// Backend kinds.
const (
	KindAuto     = "auto"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// ErrNoDatabaseURL is returned when Postgres is requested without a URL.
var ErrNoDatabaseURL = errors.New("DATABASE_URL is required for the postgres backend")

// SampleStore is the surface both store implementations share.
type SampleStore interface {
	ReplaceSamples(ctx context.Context, samples []store.Sample) (int, error)
	ListSamples(ctx context.Context, limit int) ([]store.Sample, error)
	StepsForSample(ctx context.Context, id uuid.UUID) ([]store.StepRow, error)
}

// Backend is an open, migrated sample store.
type Backend struct {
	SampleStore

	Kind string
	// Target identifies the store contents across runs, without credentials.
	Target string

	close func()
}

// Open resolves kind (auto picks postgres when databaseURL is set), opens the
// store and creates its tables.
func Open(ctx context.Context, kind, databaseURL, sqlitePath string) (*Backend, error) {
	if kind == "" || kind == KindAuto {
		kind = KindSQLite
		if databaseURL != "" {
			kind = KindPostgres
		}
	}

	switch kind {
	case KindPostgres:
		if databaseURL == "" {
			return nil, ErrNoDatabaseURL
		}
		db, err := store.New(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Backend{
			SampleStore: db,
			Kind:        kind,
			Target:      "postgres:" + redactDSN(databaseURL),
			close:       db.Close,
		}, nil
	case KindSQLite:
		db, err := sqlite.Open(sqlitePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		target := db.Path()
		if abs, err := filepath.Abs(target); err == nil {
			target = abs
		}
		return &Backend{
			SampleStore: db,
			Kind:        kind,
			Target:      "sqlite:" + target,
			close:       func() { db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}

// Close releases the underlying connection.
func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// redactDSN drops the password from a URL-style DSN. Keyword/value DSNs are
// reduced to a digest since they may carry password=... anywhere.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.Host != "" {
		if u.User != nil {
			u.User = url.User(u.User.Username())
		}
		u.RawQuery = ""
		return u.String()
	}
	sum := sha256.Sum256([]byte(dsn))
	return "dsn-" + hex.EncodeToString(sum[:8])
}
