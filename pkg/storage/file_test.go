package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igdash/pkg/errors"
	"igdash/pkg/logger"
	"igdash/pkg/models"
)

func samplePosts(ids ...string) []models.Post {
	posts := make([]models.Post, len(ids))
	for i, id := range ids {
		posts[i] = models.Post{
			PostID:      id,
			Type:        models.TypeImage,
			LikesCount:  int64(i),
			MediaURL:    "https://cdn/" + id + ".jpg",
			TopComments: []string{"nice"},
		}
	}
	return posts
}

func newTestFileStore(t *testing.T) (*FileStore, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	store, err := NewFileStoreWithClock(filepath.Join(t.TempDir(), "posts"), clock, logger.NewTestLogger())
	require.NoError(t, err)
	return store, clock
}

func TestFileStoreInsertAndRead(t *testing.T) {
	store, clock := newTestFileStore(t)
	ctx := context.Background()

	n, err := store.InsertPosts(ctx, "alice", samplePosts("p1", "p2"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	posts, err := store.PostsByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p1", posts[0].PostID)
	assert.Equal(t, "alice", posts[0].Username)
	assert.True(t, posts[0].IngestedAt.Equal(clock.Now()))

	_, err = os.Stat(filepath.Join(store.Dir(), "alice.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(store.Dir(), "alice.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreAppendsWithoutDedup(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	_, err := store.InsertPosts(ctx, "alice", samplePosts("p1"))
	require.NoError(t, err)
	_, err = store.InsertPosts(ctx, "alice", samplePosts("p1", "p2"))
	require.NoError(t, err)

	posts, err := store.PostsByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"p1", "p1", "p2"}, []string{posts[0].PostID, posts[1].PostID, posts[2].PostID})
}

func TestFileStoreExactMatch(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	_, err := store.InsertPosts(ctx, "alice", samplePosts("p1"))
	require.NoError(t, err)

	for _, name := range []string{"Alice", "alic", "bob", "../alice"} {
		posts, err := store.PostsByUsername(ctx, name)
		require.NoError(t, err)
		assert.Empty(t, posts, name)
	}
}

func TestFileStoreUsernames(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	names, err := store.Usernames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, name := range []string{"zed", "alice", "bob.b"} {
		_, err := store.InsertPosts(ctx, name, samplePosts("p1"))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0644))

	names, err = store.Usernames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob.b", "zed"}, names)
}

func TestFileStoreRejectsBadInput(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	_, err := store.InsertPosts(ctx, "", samplePosts("p1"))
	assert.Equal(t, errors.ErrorTypeMissingInput, errors.TypeOf(err))

	_, err = store.InsertPosts(ctx, "../escape", samplePosts("p1"))
	assert.Equal(t, errors.ErrorTypeStorage, errors.TypeOf(err))

	n, err := store.InsertPosts(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFileStoreCorruptDocument(t *testing.T) {
	store, _ := newTestFileStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "alice.json"), []byte("{not json"), 0644))

	_, err := store.PostsByUsername(context.Background(), "alice")
	var storageErr *errors.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "select", storageErr.Op)
}
