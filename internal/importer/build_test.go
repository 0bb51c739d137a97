package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praworks/Rule-Based-CAD-Modeling-System-Using-C-and-SolidWorks-API/internal/store"
)

var importTime = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func TestBuildBatch_MixedLines(t *testing.T) {
	data := []byte(`{"prompt":"plate","result":{"steps":[{"op":"rectangle_center","w":40,"h":20},{"op":"extrude","depth":5}]}}

{"prompt":"broken","result":null}
{not json
{"prompt":"plate","result":{"steps":[{"op":"rectangle_center","w":40,"h":20},{"op":"extrude","depth":5}]}}
["just","a","list"]
`)

	b, err := BuildBatch(data, importTime)
	require.NoError(t, err)

	assert.Equal(t, 2, b.Report.Valid)
	assert.Equal(t, 2, b.Report.Invalid)
	assert.Equal(t, 1, b.Report.Unparsable)
	assert.Equal(t, 1, b.Duplicates)
	require.Len(t, b.Samples, 3)

	plate := b.Samples[0]
	assert.Equal(t, "plate", plate.Prompt)
	assert.True(t, plate.Valid)
	assert.Equal(t, "ok", plate.Reason)
	assert.Equal(t, importTime, plate.ImportedAt)
	require.Len(t, plate.Steps, 2)
	assert.Equal(t, "rectangle_center", plate.Steps[0].Op)
	assert.JSONEq(t, `{"op":"extrude","depth":5}`, string(plate.Steps[1].Params))
	assert.Equal(t, store.SampleID("plate", plate.Result), plate.ID)

	broken := b.Samples[1]
	assert.Equal(t, "broken", broken.Prompt)
	assert.False(t, broken.Valid)
	assert.Equal(t, "result is not an object", broken.Reason)
	assert.Nil(t, broken.Result)
	assert.Empty(t, broken.Steps)

	list := b.Samples[2]
	assert.Equal(t, "", list.Prompt)
	assert.Equal(t, "Missing prompt or result", list.Reason)
}

func TestBuildBatch_StepRowsSkipMalformedSteps(t *testing.T) {
	data := []byte(`{"prompt":"p","result":{"steps":[{"op":"extrude","depth":1},"loose",{"depth":2},{"op":"fillet","r":1}]}}`)

	b, err := BuildBatch(data, importTime)
	require.NoError(t, err)
	require.Len(t, b.Samples, 1)

	sm := b.Samples[0]
	assert.False(t, sm.Valid)
	assert.Equal(t, "step 1 is not an object", sm.Reason)
	require.Len(t, sm.Steps, 2)
	assert.Equal(t, 0, sm.Steps[0].Index)
	assert.Equal(t, 3, sm.Steps[1].Index)
	assert.Equal(t, "fillet", sm.Steps[1].Op)
}

func TestBuildBatch_Empty(t *testing.T) {
	b, err := BuildBatch(nil, importTime)
	require.NoError(t, err)
	assert.Empty(t, b.Samples)
	assert.True(t, b.Report.OK())
}

func TestBuildBatch_LongLine(t *testing.T) {
	long := `{"prompt":"` + strings.Repeat("p", 11*1024*1024) + `","result":{"steps":[{"op":"extrude","depth":1}]}}`
	data := []byte(long + "\n" + `{"prompt":"short","result":{"steps":[]}}` + "\n")

	b, err := BuildBatch(data, importTime)
	require.NoError(t, err)

	assert.Equal(t, 2, b.Report.Valid)
	require.Len(t, b.Samples, 2)
	assert.Equal(t, "short", b.Samples[1].Prompt)
}
