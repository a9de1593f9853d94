package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tafa1618/Copilot-Process/internal/config"
)

type fakeStage struct {
	BaseStage
	calls int
}

func newFakeStage(id string, deps ...string) *fakeStage {
	return &fakeStage{BaseStage: NewBaseStage(id, "fake "+id, deps...)}
}

func (f *fakeStage) Execute(ctx context.Context, state *RunState) error {
	f.calls++
	return nil
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(newFakeStage("a")))
	require.NoError(t, r.Register(newFakeStage("b", "a")))

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(newFakeStage("")))
	assert.Error(t, r.Register(newFakeStage("a")), "duplicate id")

	err := r.Register(newFakeStage("c", "missing"))
	require.Error(t, err)
	assert.Equal(t, ErrorTypeDependency, GetErrorType(err))

	assert.Equal(t, []string{"a", "b"}, r.ListIDs())
	assert.Equal(t, 2, r.Count())
	assert.True(t, r.Has("b"))
	assert.False(t, r.Has("c"))

	got, err := r.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "fake b", got.Name())
	_, err = r.Get("zzz")
	assert.Error(t, err)
}

func TestDefaultRegistryOrder(t *testing.T) {
	cat, err := config.DefaultCatalog()
	require.NoError(t, err)

	r, err := DefaultRegistry(cat, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		StageResolve, StageNormalize, StageFilter, StageJoin,
		StageCollapse, StageClassify, StageAggregate, StageCorrelate,
	}, r.ListIDs())
}

func TestManagerRunsCustomStages(t *testing.T) {
	r := NewRegistry()
	a := newFakeStage("a")
	b := newFakeStage("b", "a")
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))

	m := NewManager(r, nil, nil, testLogger())
	result, err := m.Run(context.Background(), RunRequest{ID: "run-1", Tables: allTables()})
	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
