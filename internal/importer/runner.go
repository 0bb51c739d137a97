package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/hermes"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store"
	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/validator"
)

// SampleWriter replaces the stored sample set. Both the Postgres and SQLite
// stores satisfy it.
type SampleWriter interface {
	ReplaceSamples(ctx context.Context, samples []store.Sample) (int, error)
}

// Config holds the import command configuration.
type Config struct {
	StatePath string
	Target    string // identifies the store being replaced; see DefaultTarget
	Force     bool   // import even when the file is unchanged since the last run
	DryRun    bool   // validate and summarize without writing
}

// Summary is the outcome of one import run.
type Summary struct {
	ImportID   string
	Source     string
	Digest     string
	Skipped    bool
	DryRun     bool
	Total      int
	Valid      int
	Invalid    int
	Unparsable int
	Duplicates int
	Written    int
}

// Runner orchestrates a dataset import.
type Runner struct {
	cfg       Config
	store     SampleWriter
	publisher hermes.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner creates an import runner. publisher may be nil.
func NewRunner(cfg Config, s SampleWriter, publisher hermes.Publisher, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		store:     s,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run imports the JSONL dataset at path, replacing the stored samples.
func (r *Runner) Run(ctx context.Context, path string) (*Summary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolve path")
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.Wrap(err, "read dataset")
	}

	state, err := LoadState(r.cfg.StatePath)
	if err != nil {
		return nil, errors.Wrap(err, "load state")
	}

	sum := &Summary{
		ImportID: uuid.NewString(),
		Source:   abs,
		Digest:   digest(data),
		DryRun:   r.cfg.DryRun,
	}

	target := r.cfg.Target
	if target == "" {
		target = DefaultTarget
	}

	if !r.cfg.Force && state.IsCurrent(target, abs, sum.Digest) {
		r.logger.Info("dataset unchanged since last import, skipping", "path", abs, "target", target, "digest", sum.Digest)
		sum.Skipped = true
		return sum, nil
	}

	now := r.now()
	batch, err := BuildBatch(data, now)
	if err != nil {
		return nil, errors.Wrap(err, "build samples")
	}
	sum.Total = len(batch.Report.Lines)
	sum.Valid = batch.Report.Valid
	sum.Invalid = batch.Report.Invalid
	sum.Unparsable = batch.Report.Unparsable
	sum.Duplicates = batch.Duplicates

	for _, l := range batch.Report.Lines {
		if l.Status != validator.StatusOK {
			r.logger.Debug("line rejected", "path", abs, "line", l.Line, "status", l.Status, "reason", l.Reason)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !r.cfg.DryRun {
		written, err := r.store.ReplaceSamples(ctx, batch.Samples)
		if err != nil {
			return nil, errors.Wrap(err, "replace samples")
		}
		sum.Written = written

		state.MarkImported(target, abs, sum.Digest, written, now)
		if err := state.Save(); err != nil {
			r.logger.Warn("failed to save import state", "error", err)
		}
	}

	r.publish(sum, now)

	r.logger.Info("import complete",
		"import_id", sum.ImportID,
		"path", abs,
		"samples", len(batch.Samples),
		"valid", sum.Valid,
		"invalid", sum.Invalid,
		"unparsable", sum.Unparsable,
		"duplicates", sum.Duplicates,
		"dry_run", r.cfg.DryRun,
	)
	return sum, nil
}

func (r *Runner) publish(sum *Summary, now time.Time) {
	if r.publisher == nil {
		return
	}
	ev := hermes.ImportedEvent{
		ImportID:   sum.ImportID,
		Source:     sum.Source,
		Digest:     sum.Digest,
		Total:      sum.Total,
		Valid:      sum.Valid,
		Invalid:    sum.Invalid,
		Unparsable: sum.Unparsable,
		Duplicates: sum.Duplicates,
		DryRun:     sum.DryRun,
		Timestamp:  now,
	}
	if err := r.publisher.Publish(hermes.SubjectSamplesImported, ev); err != nil {
		r.logger.Warn("failed to publish import event", "import_id", sum.ImportID, "error", err)
	}
}

// Print writes a human-readable summary.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "\n=== Import Summary ===\n")
	fmt.Fprintf(w, "Source: %s\n", s.Source)
	if s.Skipped {
		fmt.Fprintf(w, "Unchanged since last import (digest %s), nothing written\n", shortDigest(s.Digest))
		return
	}
	fmt.Fprintf(w, "Lines: %d\n", s.Total)
	fmt.Fprintf(w, "Valid: %d\n", s.Valid)
	fmt.Fprintf(w, "Invalid: %d\n", s.Invalid)
	fmt.Fprintf(w, "Unparsable: %d\n", s.Unparsable)
	fmt.Fprintf(w, "Duplicates: %d\n", s.Duplicates)
	if s.DryRun {
		fmt.Fprintf(w, "Mode: DRY RUN (no store writes)\n")
		return
	}
	fmt.Fprintf(w, "Samples written: %d\n", s.Written)
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
