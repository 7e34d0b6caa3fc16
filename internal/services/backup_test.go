package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/progresskeeper/internal/blobstore"
	"github.com/dmitrijs2005/progresskeeper/internal/config"
	"github.com/dmitrijs2005/progresskeeper/internal/cryptox"
	"github.com/dmitrijs2005/progresskeeper/internal/identity"
	"github.com/dmitrijs2005/progresskeeper/internal/keys"
	"github.com/dmitrijs2005/progresskeeper/internal/logging"
)

type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	putErr  error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}}
}

func (m *memObjectStore) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *memObjectStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Key)] = data
	m.puts++
	return &s3.PutObjectOutput{}, nil
}

func (m *memObjectStore) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestBackupAndRestore(t *testing.T) {
	f := newFixture(t, "u1")
	ctx := context.Background()
	store := newMemObjectStore()

	p1 := f.save("a.jpg", []byte("one"), "1")
	f.save("b.jpg", []byte("two"), "1")
	row1, err := f.repo.Get(ctx, p1.ID, "u1")
	require.NoError(t, err)

	backup := NewBackupService(f.repo, identity.Static("u1"), f.blobs, store, "bucket", logging.Discard())

	res, err := backup.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackupResult{Transferred: 2}, res)

	name, err := blobstore.Name(row1.LocalID)
	require.NoError(t, err)
	payload, err := f.blobs.ReadEncrypted(row1.LocalID)
	require.NoError(t, err)
	assert.Equal(t, payload, store.objects[ObjectKey("u1", name)], "only ciphertext is uploaded")

	res, err = backup.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackupResult{Skipped: 2}, res)
	assert.Equal(t, 2, store.puts)

	// Restore onto a fresh device sharing the key file and the table.
	otherDir := t.TempDir()
	keyData, err := os.ReadFile(filepath.Join(f.dataDir, keys.KeyFileName))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(otherDir, keys.KeyFileName), keyData, 0o600))
	otherBlobs := blobstore.New(otherDir, cryptox.KeystreamCipher{}, keys.NewManager(otherDir))

	restore := NewBackupService(f.repo, identity.Static("u1"), otherBlobs, store, "bucket", logging.Discard())
	res, err = restore.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackupResult{Transferred: 2}, res)

	moved, err := f.repo.Get(ctx, p1.ID, "u1")
	require.NoError(t, err)
	movedPath, err := otherBlobs.Path(name)
	require.NoError(t, err)
	assert.Contains(t, moved.LocalID, movedPath)

	key, err := keys.NewManager(otherDir).GetOrCreateKey(ctx)
	require.NoError(t, err)
	plain, err := otherBlobs.Open(ctx, moved.LocalID, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), plain)

	res, err = restore.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackupResult{Skipped: 2}, res)
}

func TestBackup_SkipsRemoteAndMissingBlobs(t *testing.T) {
	f := newFixture(t, "u1")
	ctx := context.Background()
	store := newMemObjectStore()

	p := f.save("a.jpg", []byte("x"), "1")
	row, err := f.repo.Get(ctx, p.ID, "u1")
	require.NoError(t, err)
	require.NoError(t, f.blobs.Delete(row.LocalID))

	backup := NewBackupService(f.repo, identity.Static("u1"), f.blobs, store, "bucket", logging.Discard())
	res, err := backup.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackupResult{Skipped: 1}, res)
	assert.Empty(t, store.objects)

	res, err = backup.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, BackupResult{Skipped: 1}, res)
}

func TestBackup_Errors(t *testing.T) {
	f := newFixture(t, "u1")
	ctx := context.Background()
	f.save("a.jpg", []byte("x"), "1")

	disabled := NewBackupService(f.repo, identity.Static("u1"), f.blobs, nil, "", logging.Discard())
	_, err := disabled.Backup(ctx)
	require.ErrorIs(t, err, ErrBackupDisabled)
	_, err = disabled.Restore(ctx)
	require.ErrorIs(t, err, ErrBackupDisabled)

	boom := errors.New("access denied")
	store := newMemObjectStore()
	store.putErr = boom
	backup := NewBackupService(f.repo, identity.Static("u1"), f.blobs, store, "bucket", logging.Discard())
	_, err = backup.Backup(ctx)
	require.ErrorIs(t, err, boom)
}

func TestNewS3Client(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	var lo awsconfig.LoadOptions
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
	}

	client, err := NewS3Client(context.Background(), config.S3{
		Bucket: "b", Region: "eu-central-1", BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey: "minioadmin", SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "eu-central-1", lo.Region)
	require.NotNil(t, lo.Credentials)

	creds, err := lo.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minioadmin", creds.AccessKeyID)

	opts := client.Options()
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = NewS3Client(context.Background(), config.S3{Bucket: "b"})
	require.Error(t, err)
}
