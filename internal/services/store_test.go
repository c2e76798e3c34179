package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/database"
	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "store.sqlite3"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))

	result, err := NewHarmonizer().Harmonize(ctx, models.HarmonizeRequest{Melody: cMajorMelody(), Style: "jazz"})
	require.NoError(t, err)

	record, err := store.Save(ctx, result, RecordMeta{Subject: "user-1", RequestID: "req-1", Duration: 15 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, result.ID, record.ID)
	assert.Equal(t, "jazz", record.Style)
	assert.Equal(t, "C major", record.Key)
	assert.Equal(t, 4, record.Chords)
	assert.Equal(t, 15, record.DurationMS)
	assert.False(t, record.CreatedAt.IsZero())

	got, decoded, err := store.Get(ctx, result.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, result.Voicings, decoded.Voicings)
	assert.Equal(t, result.Chords, decoded.Chords)
	assert.Equal(t, result.Analysis.Key, decoded.Analysis.Key)

	// another caller cannot see it
	_, _, err = store.Get(ctx, result.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = store.Get(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSaveAssignsID(t *testing.T) {
	store := NewStore(setupTestDB(t))

	result := &models.HarmonizeResult{Style: "pop", Complexity: "simple"}
	record, err := store.Save(context.Background(), result, RecordMeta{})
	require.NoError(t, err)
	assert.Len(t, record.ID, 36)
	assert.Equal(t, record.ID, result.ID)
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))

	for i, subject := range []string{"a", "b", "a"} {
		_, err := store.Save(ctx, &models.HarmonizeResult{Style: "pop", Complexity: "simple"}, RecordMeta{Subject: subject})
		require.NoError(t, err, "save %d", i)
	}

	all, err := store.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := store.List(ctx, "a", 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, r := range mine {
		assert.Equal(t, "a", r.Subject)
	}

	limited, err := store.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
