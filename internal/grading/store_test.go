package grading

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesNamespacedFile(t *testing.T) {
	store, err := NewSubmissionStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save("student@test.edu", 8, map[string]interface{}{"answer": "hello"})
	require.NoError(t, err)

	assert.Contains(t, path, "student_at_test.edu", "email must be made filesystem-safe")
	assert.Regexp(t, regexp.MustCompile(`assignment-8-\d{8}T\d{6}Z\.json$`), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"answer": "hello"`)
}

func TestSaveDoesNotOverwriteSameSecond(t *testing.T) {
	store, err := NewSubmissionStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Save("student@test.edu", 8, map[string]interface{}{"try": 1})
	require.NoError(t, err)
	second, err := store.Save("student@test.edu", 8, map[string]interface{}{"try": 2})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.FileExists(t, first)
	assert.FileExists(t, second)
}

func TestSaveSuffixesCollidingFilenames(t *testing.T) {
	store, err := NewSubmissionStore(t.TempDir())
	require.NoError(t, err)
	store.now = func() time.Time {
		return time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	}

	first, err := store.Save("student@test.edu", 8, map[string]interface{}{"try": 1})
	require.NoError(t, err)
	second, err := store.Save("student@test.edu", 8, map[string]interface{}{"try": 2})
	require.NoError(t, err)
	third, err := store.Save("student@test.edu", 8, map[string]interface{}{"try": 3})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(first, "assignment-8-20260115T103000Z.json"))
	assert.True(t, strings.HasSuffix(second, "assignment-8-20260115T103000Z-2.json"))
	assert.True(t, strings.HasSuffix(third, "assignment-8-20260115T103000Z-3.json"))
}

func TestSaveFailsFastOnUncreatableFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	base := t.TempDir()
	store, err := NewSubmissionStore(base)
	require.NoError(t, err)

	dir := filepath.Join(base, "student_at_test.edu")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	_, err = store.Save("student@test.edu", 8, map[string]interface{}{"try": 1})
	assert.Error(t, err, "a create failure other than an existing file must not be retried")
}

func TestSaveToleratesExistingDirectory(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "student_at_test.edu"), 0o755))

	store, err := NewSubmissionStore(base)
	require.NoError(t, err)

	_, err = store.Save("student@test.edu", 9, map[string]interface{}{})
	assert.NoError(t, err)
}

func TestSavePreservesNonASCII(t *testing.T) {
	store, err := NewSubmissionStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Save("student@test.edu", 10, map[string]interface{}{"answer": "日本語の回答"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "日本語の回答"), "non-ASCII characters must not be escaped")
}
