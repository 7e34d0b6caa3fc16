package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureSubdDir_CreatesUnderBase(t *testing.T) {
	base := t.TempDir()

	got, err := EnsureSubdDir(base, "encrypted-photos")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "encrypted-photos"), got)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
	}
}

func TestEnsureSubdDir_EmptyBaseUsesCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureSubdDir("", "photo-previews")
	require.NoError(t, err)

	// TempDir may be behind a symlink (macOS), compare resolved paths.
	want, err := filepath.EvalSymlinks(filepath.Join(tmp, "photo-previews"))
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	require.Equal(t, want, gotResolved)
}

func TestEnsureSubdDir_Idempotent(t *testing.T) {
	base := t.TempDir()

	first, err := EnsureSubdDir(base, "nested/dir")
	require.NoError(t, err)
	second, err := EnsureSubdDir(base, "nested/dir")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureSubdDir_FailsIfFileWithSameNameExists(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "blocked"), []byte("x"), 0o600))

	_, err := EnsureSubdDir(base, "blocked")
	require.Error(t, err)
}

func TestWriteFileAtomic_ReplacesContentAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preview.jpg")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "f"), []byte("x"), 0o600)
	require.Error(t, err)
}

func TestExistsAndRemoveIfExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")

	ok, err := Exists(path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, RemoveIfExists(path))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	ok, err = Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, RemoveIfExists(path))
	require.NoError(t, RemoveIfExists(path))
}

func TestURIConversion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}

	uri := PathToURI("/tmp/photos/a b.jpg")
	assert.Equal(t, "file:///tmp/photos/a%20b.jpg", uri)

	path, err := URIToPath(uri)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/photos/a b.jpg", path)

	path, err = URIToPath("file:///tmp/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.jpg", path)

	_, err = URIToPath("content://media/1")
	require.Error(t, err)

	for uri, want := range map[string]string{
		"file:///tmp/100%.jpg":         "/tmp/100%.jpg",
		"file:///tmp/shot#2.jpg":       "/tmp/shot#2.jpg",
		"file:///tmp/what?.jpg":        "/tmp/what?.jpg",
		"file://localhost/tmp/50%.jpg": "/tmp/50%.jpg",
	} {
		path, err := URIToPath(uri)
		require.NoError(t, err, uri)
		assert.Equal(t, want, path, uri)
	}

	for _, name := range []string{"100%.jpg", "shot#2.jpg", "what?.jpg"} {
		path, err := URIToPath(PathToURI("/tmp/" + name))
		require.NoError(t, err)
		assert.Equal(t, "/tmp/"+name, path)
	}

	assert.True(t, IsFileURI("file:///x"))
	assert.False(t, IsFileURI("https://x"))
	assert.True(t, IsRemoteURL("https://cdn.example/a.jpg"))
	assert.True(t, IsRemoteURL("http://cdn.example/a.jpg"))
	assert.False(t, IsRemoteURL("file:///a.jpg"))
}
