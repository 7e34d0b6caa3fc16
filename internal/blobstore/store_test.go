package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/cryptox"
	"github.com/dmitrijs2005/progresskeeper/internal/filex"
	"github.com/dmitrijs2005/progresskeeper/internal/keys"
)

type failingKeys struct{ err error }

func (f failingKeys) GetOrCreateKey(context.Context) ([]byte, error) { return nil, f.err }

func newStore(t *testing.T, c cryptox.Cipher) (*Store, *keys.Manager) {
	t.Helper()
	dir := t.TempDir()
	km := keys.NewManager(dir)
	return New(dir, c, km), km
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"file:///tmp/a.JPG":                 "jpg",
		"file:///tmp/a.png?x=1":             "png",
		"https://x.com/p/photo.heic#frag":   "heic",
		"content://media/external/images/1": "jpg",
		"data:image/png;base64,AAAA":        "jpg",
		"file:///tmp/dir.d/noext":           "jpg",
		"":                                  "jpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, Extension(in), in)
	}
}

func TestWriteReadOpen_RoundTrip(t *testing.T) {
	for _, c := range cryptox.Ciphers() {
		t.Run(c.Name(), func(t *testing.T) {
			s, km := newStore(t, c)
			ctx := context.Background()
			data := []byte("progress photo bytes")

			uri, err := s.WriteEncrypted(ctx, "file:///tmp/a.PNG", data)
			require.NoError(t, err)
			require.True(t, IsEncryptedURI(uri))
			assert.True(t, strings.HasSuffix(uri, ".png"+c.Suffix()))

			payload, err := s.ReadEncrypted(uri)
			require.NoError(t, err)
			assert.NotEqual(t, data, payload)

			key, err := km.GetOrCreateKey(ctx)
			require.NoError(t, err)
			plain, err := s.Open(ctx, uri, key)
			require.NoError(t, err)
			assert.Equal(t, data, plain)

			got, err := CipherFor(uri)
			require.NoError(t, err)
			assert.Equal(t, c.Name(), got.Name())
		})
	}
}

func TestWriteEncrypted_UniqueNames(t *testing.T) {
	s, _ := newStore(t, cryptox.KeystreamCipher{})
	ctx := context.Background()

	a, err := s.WriteEncrypted(ctx, "", []byte("x"))
	require.NoError(t, err)
	b, err := s.WriteEncrypted(ctx, "", []byte("x"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	names, err := s.List()
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func TestWriteEncrypted_KeyError(t *testing.T) {
	boom := errors.New("no key")
	s := New(t.TempDir(), cryptox.KeystreamCipher{}, failingKeys{err: boom})

	_, err := s.WriteEncrypted(context.Background(), "", []byte("x"))
	require.ErrorIs(t, err, boom)
}

func TestDelete_Idempotent(t *testing.T) {
	s, _ := newStore(t, cryptox.KeystreamCipher{})

	uri, err := s.WriteEncrypted(context.Background(), "a.jpg", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(uri))
	require.NoError(t, s.Delete(uri))

	_, err = s.ReadEncrypted(uri)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestIsEncryptedURI(t *testing.T) {
	dir := t.TempDir()
	blob := filepath.Join(dir, DirName, "x.jpg.enc")

	assert.True(t, IsEncryptedURI(filex.PathToURI(blob)))
	assert.True(t, IsEncryptedURI(filex.PathToURI(filepath.Join(dir, DirName, "x.jpg.xenc"))))
	assert.False(t, IsEncryptedURI(filex.PathToURI(filepath.Join(dir, "x.jpg.enc"))))
	assert.False(t, IsEncryptedURI(filex.PathToURI(filepath.Join(dir, DirName, "x.jpg"))))
	assert.False(t, IsEncryptedURI("https://example.com/"+DirName+"/x.jpg.enc"))
	assert.False(t, IsEncryptedURI("content://x/"+DirName+"/x.jpg.enc"))
}

func TestWritePayload_RejectsBadNames(t *testing.T) {
	s, _ := newStore(t, cryptox.KeystreamCipher{})

	_, err := s.WritePayload("../escape.jpg.enc", []byte("x"))
	require.ErrorIs(t, err, ErrNotEncrypted)
	_, err = s.WritePayload("plain.jpg", []byte("x"))
	require.ErrorIs(t, err, ErrNotEncrypted)

	uri, err := s.WritePayload("restored.jpg.enc", []byte("payload"))
	require.NoError(t, err)
	name, err := Name(uri)
	require.NoError(t, err)
	assert.Equal(t, "restored.jpg.enc", name)
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	s, _ := newStore(t, cryptox.KeystreamCipher{})

	dir, err := s.Dir()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jpg.enc"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg.xenc"), []byte("x"), 0o600))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg.xenc", "b.jpg.enc"}, names)
}

func TestOpen_CanceledContext(t *testing.T) {
	s, _ := newStore(t, cryptox.KeystreamCipher{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Open(ctx, "file:///x/"+DirName+"/a.jpg.enc", make([]byte, cryptox.KeySize))
	require.ErrorIs(t, err, context.Canceled)
}
