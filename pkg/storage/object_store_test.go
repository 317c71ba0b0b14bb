package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatedKey(t *testing.T) {
	now := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)

	key := DatedKey("transient", "PNG", now)

	assert.True(t, strings.HasPrefix(key, "transient/2024/03/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(key, "transient/2024/03/"), ".png"), 36)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://files.local")

	require.NoError(t, store.Put(ctx, "a/b.zip", strings.NewReader("zip"), 3, "application/zip"))

	url, err := store.PresignGet(ctx, "a/b.zip", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "http://files.local/a/b.zip?expires=3600", url)

	obj, ok := store.Get("a/b.zip")
	require.True(t, ok)
	assert.Equal(t, "zip", string(obj.Data))

	require.NoError(t, store.Delete(ctx, "a/b.zip"))
	_, err = store.PresignGet(ctx, "a/b.zip", time.Hour)
	assert.Error(t, err)
}
