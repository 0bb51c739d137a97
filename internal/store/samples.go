package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ReplaceSamples swaps the whole sample set for samples in one transaction.
// Sample IDs must be unique within the slice.
func (s *Store) ReplaceSamples(ctx context.Context, samples []Sample) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// sample_steps goes with the cascade.
	if _, err := tx.Exec(ctx, `DELETE FROM samples`); err != nil {
		return 0, fmt.Errorf("clear samples: %w", err)
	}

	for _, sm := range samples {
		sm = withoutNUL(sm)
		_, err = tx.Exec(ctx, `
			INSERT INTO samples (id, prompt, result, valid, reason, imported_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			sm.ID, sm.Prompt, nullableJSON(sm.Result), sm.Valid, sm.Reason, sm.ImportedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert sample: %w", err)
		}

		for _, st := range sm.Steps {
			_, err = tx.Exec(ctx, `
				INSERT INTO sample_steps (sample_id, step_index, op, params)
				VALUES ($1, $2, $3, $4)`,
				sm.ID, st.Index, st.Op, string(st.Params),
			)
			if err != nil {
				return 0, fmt.Errorf("insert step: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(samples), nil
}

// ListSamples returns the most recently imported samples without their steps.
func (s *Store) ListSamples(ctx context.Context, limit int) ([]Sample, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, prompt, result, valid, reason, imported_at
		FROM samples
		ORDER BY imported_at DESC, prompt
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var sm Sample
		var result []byte
		if err := rows.Scan(&sm.ID, &sm.Prompt, &result, &sm.Valid, &sm.Reason, &sm.ImportedAt); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sm.Result = result
		out = append(out, sm)
	}
	return out, rows.Err()
}

// StepsForSample returns a sample's steps in index order.
func (s *Store) StepsForSample(ctx context.Context, id uuid.UUID) ([]StepRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT step_index, op, params
		FROM sample_steps
		WHERE sample_id = $1
		ORDER BY step_index`, id)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []StepRow
	for rows.Next() {
		var st StepRow
		var params []byte
		if err := rows.Scan(&st.Index, &st.Op, &params); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.Params = params
		out = append(out, st)
	}
	return out, rows.Err()
}
