package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "samples.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testSamples() []store.Sample {
	result := json.RawMessage(`{"steps":[{"op":"circle_center","diameter":10},{"op":"extrude","depth":2}]}`)
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	return []store.Sample{
		{
			ID:     store.SampleID("disc", result),
			Prompt: "disc",
			Result: result,
			Valid:  true,
			Reason: "ok",
			Steps: []store.StepRow{
				{Index: 0, Op: "circle_center", Params: json.RawMessage(`{"op":"circle_center","diameter":10}`)},
				{Index: 1, Op: "extrude", Params: json.RawMessage(`{"op":"extrude","depth":2}`)},
			},
			ImportedAt: now,
		},
		{
			ID:         store.SampleID("broken", nil),
			Prompt:     "broken",
			Valid:      false,
			Reason:     "result is not an object",
			ImportedAt: now,
		},
	}
}

func TestStore_ReplaceAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.ReplaceSamples(ctx, testSamples())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.ListSamples(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Same timestamp, so prompt order decides.
	assert.Equal(t, "broken", got[0].Prompt)
	assert.Nil(t, got[0].Result)
	assert.False(t, got[0].Valid)
	assert.Equal(t, "disc", got[1].Prompt)
	assert.True(t, got[1].Valid)
	assert.JSONEq(t, string(testSamples()[0].Result), string(got[1].Result))
	assert.Equal(t, testSamples()[0].ID, got[1].ID)
	assert.True(t, got[1].ImportedAt.Equal(testSamples()[0].ImportedAt))
}

func TestStore_ReplaceIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.ReplaceSamples(ctx, testSamples())
	require.NoError(t, err)
	_, err = s.ReplaceSamples(ctx, testSamples()[:1])
	require.NoError(t, err)

	got, err := s.ListSamples(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "disc", got[0].Prompt)
}

func TestStore_StepsForSample(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	samples := testSamples()

	_, err := s.ReplaceSamples(ctx, samples)
	require.NoError(t, err)

	steps, err := s.StepsForSample(ctx, samples[0].ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "circle_center", steps[0].Op)
	assert.Equal(t, 1, steps[1].Index)
	assert.JSONEq(t, `{"op":"extrude","depth":2}`, string(steps[1].Params))

	none, err := s.StepsForSample(ctx, samples[1].ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_PathAndNilClose(t *testing.T) {
	s := &Store{path: "x.db"}
	assert.Equal(t, "x.db", s.Path())

	var nilStore *Store
	assert.NoError(t, nilStore.Close())
}
