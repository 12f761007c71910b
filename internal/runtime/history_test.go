package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mhamid3d/maya-usd/internal/runtime"
	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingCommand logs lifecycle calls and can be told to fail.
type recordingCommand struct {
	name string
	log  *[]string
	fail error
}

func (c *recordingCommand) Execute(ctx context.Context) error { return c.record("execute") }
func (c *recordingCommand) Undo(ctx context.Context) error    { return c.record("undo") }
func (c *recordingCommand) Redo(ctx context.Context) error    { return c.record("redo") }

func (c *recordingCommand) record(op string) error {
	*c.log = append(*c.log, c.name+":"+op)
	return c.fail
}

func TestHistory_UndoRedo(t *testing.T) {
	ctx := context.Background()
	var log []string
	h := runtime.NewHistory()

	assert.False(t, h.CanUndo())
	assert.ErrorIs(t, h.Undo(ctx), domain.ErrNothingToUndo)
	assert.ErrorIs(t, h.Redo(ctx), domain.ErrNothingToRedo)

	require.NoError(t, h.Execute(ctx, &recordingCommand{name: "a", log: &log}))
	require.NoError(t, h.Execute(ctx, &recordingCommand{name: "b", log: &log}))

	require.NoError(t, h.Undo(ctx))
	require.NoError(t, h.Undo(ctx))
	assert.False(t, h.CanUndo())
	assert.True(t, h.CanRedo())

	require.NoError(t, h.Redo(ctx))
	assert.Equal(t, []string{"a:execute", "b:execute", "b:undo", "a:undo", "a:redo"}, log)

	undo, redo := h.Len()
	assert.Equal(t, 1, undo)
	assert.Equal(t, 1, redo)
}

func TestHistory_ExecuteTruncatesRedo(t *testing.T) {
	ctx := context.Background()
	var log []string
	h := runtime.NewHistory()

	require.NoError(t, h.Execute(ctx, &recordingCommand{name: "a", log: &log}))
	require.NoError(t, h.Undo(ctx))
	require.True(t, h.CanRedo())

	require.NoError(t, h.Execute(ctx, &recordingCommand{name: "b", log: &log}))
	assert.False(t, h.CanRedo(), "a new command discards the redo tail")
}

func TestHistory_FailuresAreNotRecorded(t *testing.T) {
	ctx := context.Background()
	var log []string
	h := runtime.NewHistory()

	require.NoError(t, h.Execute(ctx, &recordingCommand{name: "a", log: &log}))
	require.NoError(t, h.Undo(ctx))

	boom := errors.New("boom")
	err := h.Execute(ctx, &recordingCommand{name: "bad", log: &log, fail: boom})
	assert.ErrorIs(t, err, boom)
	assert.True(t, h.CanRedo(), "a failed execute leaves the redo tail alone")
	undo, _ := h.Len()
	assert.Zero(t, undo)

	flaky := &recordingCommand{name: "flaky", log: &log}
	require.NoError(t, h.Execute(ctx, flaky))
	flaky.fail = boom
	assert.ErrorIs(t, h.Undo(ctx), boom)
	assert.True(t, h.CanUndo(), "a failed undo can be retried")

	flaky.fail = nil
	require.NoError(t, h.Undo(ctx))
	flaky.fail = boom
	assert.ErrorIs(t, h.Redo(ctx), boom)
	assert.True(t, h.CanRedo())
}

func TestHistory_MaxDepth(t *testing.T) {
	ctx := context.Background()
	var log []string
	h := runtime.NewHistory(runtime.WithMaxDepth(2))

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, h.Execute(ctx, &recordingCommand{name: name, log: &log}))
	}
	require.NoError(t, h.Undo(ctx))
	require.NoError(t, h.Undo(ctx))
	assert.ErrorIs(t, h.Undo(ctx), domain.ErrNothingToUndo, "the oldest command was discarded")
	assert.Equal(t, []string{"a:execute", "b:execute", "c:execute", "c:undo", "b:undo"}, log)

	h.Clear()
	assert.False(t, h.CanRedo())
}

func TestHistory_DrivesRenameCommands(t *testing.T) {
	ctx := context.Background()
	stage := singleLayerStage(t)
	h := runtime.NewHistory()

	first := newRename(t, stage, nil, "/A/B", "C")
	require.NoError(t, h.Execute(ctx, first))

	second := newRename(t, stage, nil, "/A/C", "D")
	require.NoError(t, h.Execute(ctx, second))
	assert.Equal(t, []domain.Path{"/A", "/A/D", "/A/D/Leaf"}, stage.Prims())

	require.NoError(t, h.Undo(ctx))
	require.NoError(t, h.Undo(ctx))
	assert.Equal(t, []domain.Path{"/A", "/A/B", "/A/B/Leaf"}, stage.Prims())

	require.NoError(t, h.Redo(ctx))
	require.NoError(t, h.Redo(ctx))
	assert.Equal(t, []domain.Path{"/A", "/A/D", "/A/D/Leaf"}, stage.Prims())
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	var log []string
	boom := errors.New("boom")

	batch := runtime.Batch{
		&recordingCommand{name: "a", log: &log},
		&recordingCommand{name: "b", log: &log, fail: boom},
		&recordingCommand{name: "c", log: &log},
	}

	err := batch.Execute(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a:execute", "b:execute", "a:undo"}, log, "a failing child reverts the applied ones")

	log = nil
	batch[1].(*recordingCommand).fail = nil
	require.NoError(t, batch.Redo(ctx))
	assert.Equal(t, []string{"a:redo", "b:redo", "c:redo"}, log)

	log = nil
	batch[0].(*recordingCommand).fail = boom
	assert.ErrorIs(t, batch.Undo(ctx), boom)
	assert.Equal(t, []string{"c:undo", "b:undo", "a:undo", "b:redo", "c:redo"}, log, "a failing undo reapplies the undone ones")
}

func TestBatch_RenamesSiblings(t *testing.T) {
	ctx := context.Background()
	stage := singleLayerStage(t)
	require.NoError(t, stage.AddSpec(ctx, "L", "/A/E", domain.NewPrimSpec(domain.SpecifierDef, "")))

	batch := runtime.Batch{
		newRename(t, stage, nil, "/A/B", "C"),
		newRename(t, stage, nil, "/A/E", "F"),
	}
	h := runtime.NewHistory()
	require.NoError(t, h.Execute(ctx, batch))
	assert.Equal(t, []domain.Path{"/A", "/A/C", "/A/C/Leaf", "/A/F"}, stage.Prims())

	require.NoError(t, h.Undo(ctx))
	assert.Equal(t, []domain.Path{"/A", "/A/B", "/A/B/Leaf", "/A/E"}, stage.Prims())
}

func TestBatch_PartialFailureLeavesStageUntouched(t *testing.T) {
	ctx := context.Background()
	stage := singleLayerStage(t)
	require.NoError(t, stage.AddSpec(ctx, "L", "/A/E", domain.NewPrimSpec(domain.SpecifierDef, "")))
	require.NoError(t, stage.AddSpec(ctx, "L", "/A/F", domain.NewPrimSpec(domain.SpecifierDef, "")))
	before, _ := stage.Export("L")

	batch := runtime.Batch{
		newRename(t, stage, nil, "/A/B", "C"),
		newRename(t, stage, nil, "/A/E", "F"),
	}
	h := runtime.NewHistory()
	err := h.Execute(ctx, batch)
	assert.ErrorIs(t, err, domain.ErrPrimExists)

	after, _ := stage.Export("L")
	assert.Nil(t, domain.DiffLayers(before, after), "the rename that succeeded is reverted")
	assert.Equal(t, []domain.Path{"/A", "/A/B", "/A/B/Leaf", "/A/E", "/A/F"}, stage.Prims())
	assert.False(t, h.CanUndo())
	assert.Equal(t, domain.StateConstructed, batch[0].(*runtime.RenameCommand).State())
}

func TestItems(t *testing.T) {
	ctx := context.Background()
	stage := singleLayerStage(t)
	require.NoError(t, stage.AddSpec(ctx, "L", "/A/E", domain.NewPrimSpec(domain.SpecifierDef, "")))

	batch := runtime.Batch{
		newRename(t, stage, nil, "/A/B", "C"),
		newRename(t, stage, nil, "/A/E", "F"),
	}
	h := runtime.NewHistory()
	require.NoError(t, h.Execute(ctx, batch))
	assert.Equal(t, []domain.Path{"/A/C", "/A/F"}, paths(runtime.Items(h.Last())))

	require.NoError(t, h.Undo(ctx))
	assert.Nil(t, h.Last())
	assert.Equal(t, []domain.Path{"/A/B", "/A/E"}, paths(runtime.Items(h.LastUndone())))

	assert.Nil(t, runtime.Items(&recordingCommand{name: "x", log: new([]string)}))
}

func paths(items []*domain.Item) []domain.Path {
	out := make([]domain.Path, len(items))
	for i, item := range items {
		out[i] = item.Path
	}
	return out
}
