package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories builds each Store implementation for shared tests.
var storeFactories = map[string]func(t *testing.T) Store{
	"memory": func(t *testing.T) Store {
		return NewMemoryStore()
	},
	"sqlite": func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
		require.NoError(t, err)
		return s
	},
}

// TestStore_AppendAndList runs the shared contract against both stores.
func TestStore_AppendAndList(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.Append(Entry{Kind: KindAttach, Handle: "reg-1", EventType: "click", Stage: -1}))
			require.NoError(t, s.Append(Entry{Kind: KindDetach, Handle: "reg-1", EventType: "click", Stage: -1}))
			require.NoError(t, s.Append(Entry{Kind: KindStageError, ChainID: "c1", Stage: 2, Detail: "boom"}))

			entries, err := s.List(0)
			require.NoError(t, err)
			require.Len(t, entries, 3)

			assert.Equal(t, KindAttach, entries[0].Kind)
			assert.Equal(t, "reg-1", entries[0].Handle)
			assert.Equal(t, "click", entries[0].EventType)
			assert.False(t, entries[0].Timestamp.IsZero())

			assert.Equal(t, KindStageError, entries[2].Kind)
			assert.Equal(t, "c1", entries[2].ChainID)
			assert.Equal(t, 2, entries[2].Stage)
			assert.Equal(t, "boom", entries[2].Detail)
		})
	}
}

// TestStore_List_Limit tests that List returns only the newest entries.
func TestStore_List_Limit(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			for i := 0; i < 5; i++ {
				require.NoError(t, s.Append(Entry{Kind: KindAttach, Handle: "reg", Detail: string(rune('a' + i))}))
			}

			entries, err := s.List(2)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "d", entries[0].Detail)
			assert.Equal(t, "e", entries[1].Detail)
		})
	}
}

// TestStore_CountByKind tests grouped counting.
func TestStore_CountByKind(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()

			require.NoError(t, s.Append(Entry{Kind: KindAttach}))
			require.NoError(t, s.Append(Entry{Kind: KindAttach}))
			require.NoError(t, s.Append(Entry{Kind: KindSweep}))

			counts, err := s.CountByKind()
			require.NoError(t, err)
			assert.Equal(t, map[Kind]int{KindAttach: 2, KindSweep: 1}, counts)
		})
	}
}

// TestStore_Closed tests that a closed store rejects operations.
func TestStore_Closed(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			require.NoError(t, s.Close())

			assert.ErrorIs(t, s.Append(Entry{Kind: KindAttach}), ErrStoreClosed)
			_, err := s.List(0)
			assert.ErrorIs(t, err, ErrStoreClosed)
			_, err = s.CountByKind()
			assert.ErrorIs(t, err, ErrStoreClosed)

			// Closing twice is fine.
			assert.NoError(t, s.Close())
		})
	}
}

// TestSQLiteStore_Reopen tests that entries survive reopening the file.
func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(Entry{Kind: KindCleanup, Timestamp: time.Now()}))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	entries, err := s2.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindCleanup, entries[0].Kind)
}
