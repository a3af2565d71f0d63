package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tag creates a stage that records its label into the threaded data.
func tag(label string) Stage[string] {
	return func(ctx context.Context, evt string, data any) (any, bool, error) {
		if data == nil {
			return []string{label}, true, nil
		}
		return append(data.([]string), label), true, nil
	}
}

// runAll executes a stage snapshot the way the engine does.
func runAll(t *testing.T, stages []Stage[string], evt string) any {
	t.Helper()
	var data any
	for _, st := range stages {
		next, cont, err := st(context.Background(), evt, data)
		require.NoError(t, err)
		if !cont {
			break
		}
		data = next
	}
	return data
}

// TestNewStore verifies basic store creation.
func TestNewStore(t *testing.T) {
	s := NewStore[string]()
	assert.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
}

// TestStore_Create tests chain creation and duplicate rejection.
func TestStore_Create(t *testing.T) {
	s := NewStore[string]()

	err := s.Create("c1", []Stage[string]{tag("a"), tag("b")})
	require.NoError(t, err)
	assert.True(t, s.Has("c1"))

	err = s.Create("c1", []Stage[string]{tag("x")})
	assert.ErrorIs(t, err, ErrDuplicateChain)

	// The original chain is untouched.
	n, ok := s.StageCount("c1")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}

// TestStore_Create_CopiesInput tests that mutating the caller's slice
// after Create does not affect the stored chain.
func TestStore_Create_CopiesInput(t *testing.T) {
	s := NewStore[string]()
	stages := []Stage[string]{tag("a")}
	require.NoError(t, s.Create("c1", stages))

	stages[0] = tag("mutated")

	snapshot, ok := s.Stages("c1")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, runAll(t, snapshot, "evt"))
}

// TestStore_Append tests appending stages.
func TestStore_Append(t *testing.T) {
	s := NewStore[string]()
	require.NoError(t, s.Create("c1", []Stage[string]{tag("a")}))

	require.NoError(t, s.Append("c1", tag("b")))

	snapshot, _ := s.Stages("c1")
	assert.Equal(t, []string{"a", "b"}, runAll(t, snapshot, "evt"))
}

// TestStore_Append_UnknownChain tests appending to a missing id.
func TestStore_Append_UnknownChain(t *testing.T) {
	s := NewStore[string]()
	err := s.Append("nope", tag("a"))
	assert.ErrorIs(t, err, ErrUnknownChain)
}

// TestStore_Insert tests insertion at arbitrary positions.
func TestStore_Insert(t *testing.T) {
	testCases := []struct {
		name     string
		position int
		want     []string
	}{
		{"front", 0, []string{"new", "a", "b"}},
		{"middle", 1, []string{"a", "new", "b"}},
		{"end", 2, []string{"a", "b", "new"}},
		{"clamped negative", -5, []string{"new", "a", "b"}},
		{"clamped past end", 99, []string{"a", "b", "new"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore[string]()
			require.NoError(t, s.Create("c1", []Stage[string]{tag("a"), tag("b")}))
			require.NoError(t, s.Insert("c1", tc.position, tag("new")))

			snapshot, _ := s.Stages("c1")
			assert.Equal(t, tc.want, runAll(t, snapshot, "evt"))
		})
	}
}

// TestStore_Insert_UnknownChain tests inserting into a missing id.
func TestStore_Insert_UnknownChain(t *testing.T) {
	s := NewStore[string]()
	err := s.Insert("nope", 0, tag("a"))
	assert.ErrorIs(t, err, ErrUnknownChain)
}

// TestStore_Stages_Snapshot tests that a taken snapshot is isolated from
// later mutation.
func TestStore_Stages_Snapshot(t *testing.T) {
	s := NewStore[string]()
	require.NoError(t, s.Create("c1", []Stage[string]{tag("a")}))

	snapshot, ok := s.Stages("c1")
	require.True(t, ok)

	require.NoError(t, s.Append("c1", tag("b")))

	// The snapshot still has one stage.
	assert.Len(t, snapshot, 1)
	n, _ := s.StageCount("c1")
	assert.Equal(t, 2, n)
}

// TestStore_Stages_UnknownChain tests Stages on a missing id.
func TestStore_Stages_UnknownChain(t *testing.T) {
	s := NewStore[string]()
	snapshot, ok := s.Stages("nope")
	assert.False(t, ok)
	assert.Nil(t, snapshot)
}

// TestStore_Remove tests removal and id reuse.
func TestStore_Remove(t *testing.T) {
	s := NewStore[string]()
	require.NoError(t, s.Create("c1", []Stage[string]{tag("a")}))

	assert.True(t, s.Remove("c1"))
	assert.False(t, s.Has("c1"))

	// Removing again is a no-op.
	assert.False(t, s.Remove("c1"))

	// The id is free for reuse.
	assert.NoError(t, s.Create("c1", []Stage[string]{tag("b")}))
}

// TestStore_IDs tests live id listing.
func TestStore_IDs(t *testing.T) {
	s := NewStore[string]()
	require.NoError(t, s.Create("a", nil))
	require.NoError(t, s.Create("b", nil))

	assert.ElementsMatch(t, []string{"a", "b"}, s.IDs())
}

// TestStore_Clear tests dropping all chains at once.
func TestStore_Clear(t *testing.T) {
	s := NewStore[string]()
	require.NoError(t, s.Create("a", nil))
	require.NoError(t, s.Create("b", nil))

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.NoError(t, s.Create("a", nil))
}
