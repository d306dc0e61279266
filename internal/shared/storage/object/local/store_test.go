package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/util"
)

func TestSaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := New(dir)

	key, size, mimeType, err := store.Save(ctx, "user-1", "resume.txt", strings.NewReader("hello resume"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("hello resume")), size)
	assert.True(t, strings.HasPrefix(mimeType, "text/plain"))
	assert.True(t, strings.HasPrefix(key, util.HashUserKey("user-1")+"/"))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello resume", string(body))

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	store := New(t.TempDir())
	err := store.Delete(context.Background(), "abc/missing.pdf")
	assert.ErrorIs(t, err, object.ErrNotFound)

	_, err = store.Open(context.Background(), "abc/missing.pdf")
	assert.ErrorIs(t, err, object.ErrNotFound)
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir())
	for _, key := range []string{"", "../etc/passwd", "/etc/passwd", "."} {
		err := store.Delete(context.Background(), key)
		assert.Error(t, err, key)
		assert.NotErrorIs(t, err, object.ErrNotFound, key)
	}
}

func TestSaveRejectsTraversalNames(t *testing.T) {
	_, _, _, err := New(t.TempDir()).Save(context.Background(), "user-1", "../x.pdf", strings.NewReader("x"))
	assert.Error(t, err)
}
