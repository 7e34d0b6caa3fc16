package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/progresskeeper/internal/blobstore"
	"github.com/dmitrijs2005/progresskeeper/internal/common"
	"github.com/dmitrijs2005/progresskeeper/internal/config"
	"github.com/dmitrijs2005/progresskeeper/internal/filex"
	"github.com/dmitrijs2005/progresskeeper/internal/identity"
	"github.com/dmitrijs2005/progresskeeper/internal/logging"
	"github.com/dmitrijs2005/progresskeeper/internal/repositories/photos"
)

var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ObjectStore is the part of the S3 API used for backups. *s3.Client
// satisfies it.
type ObjectStore interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// BlobFiles gives backup access to raw blob payloads.
type BlobFiles interface {
	ReadEncrypted(uri string) ([]byte, error)
	WritePayload(name string, payload []byte) (string, error)
	Path(name string) (string, error)
}

// NewS3Client builds a client for an S3-compatible endpoint. Static
// credentials are used when configured, the default AWS chain otherwise.
func NewS3Client(ctx context.Context, cfg config.S3) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// BackupService copies encrypted blobs to and from object storage. Only
// ciphertext leaves the device; the key never does, so a restore is only
// readable with the original key file.
type BackupService struct {
	repo     photos.Repository
	identity identity.Provider
	blobs    BlobFiles
	store    ObjectStore
	bucket   string
	log      logging.Logger
}

// BackupResult counts the blobs handled by Backup or Restore.
type BackupResult struct {
	Transferred int
	Skipped     int
}

func NewBackupService(repo photos.Repository, id identity.Provider, blobs BlobFiles, store ObjectStore, bucket string, log logging.Logger) *BackupService {
	return &BackupService{repo: repo, identity: id, blobs: blobs, store: store, bucket: bucket, log: log}
}

// ObjectKey is the bucket key of a user's blob.
func ObjectKey(userID, blobName string) string {
	return path.Join("users", userID, blobName)
}

// Backup uploads every blob referenced by the user's photos that the
// bucket does not hold yet.
func (b *BackupService) Backup(ctx context.Context) (BackupResult, error) {
	var res BackupResult
	if b.store == nil {
		return res, ErrBackupDisabled
	}

	userID, err := b.identity.CurrentUserID(ctx)
	if err != nil {
		return res, err
	}

	rows, err := b.repo.List(ctx, userID, nil)
	if err != nil {
		return res, err
	}

	for _, row := range rows {
		name, err := blobstore.Name(row.LocalID)
		if err != nil {
			continue
		}
		key := ObjectKey(userID, name)

		exists, err := b.exists(ctx, key)
		if err != nil {
			return res, err
		}
		if exists {
			res.Skipped++
			continue
		}

		payload, err := b.blobs.ReadEncrypted(row.LocalID)
		if errors.Is(err, common.ErrorNotFound) {
			b.log.Warn(ctx, "blob missing locally, not backed up", "photo", row.ID, "blob", name)
			res.Skipped++
			continue
		}
		if err != nil {
			return res, err
		}

		_, err = b.store.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(b.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(payload),
			ContentType: aws.String("application/octet-stream"),
		})
		if err != nil {
			return res, fmt.Errorf("upload %s: %w", key, err)
		}
		res.Transferred++
	}

	b.log.Info(ctx, "backup finished", "uploaded", res.Transferred, "skipped", res.Skipped)
	return res, nil
}

// Restore downloads blobs referenced by the user's photos that are missing
// on this device and repoints rows at the local copies.
func (b *BackupService) Restore(ctx context.Context) (BackupResult, error) {
	var res BackupResult
	if b.store == nil {
		return res, ErrBackupDisabled
	}

	userID, err := b.identity.CurrentUserID(ctx)
	if err != nil {
		return res, err
	}

	rows, err := b.repo.List(ctx, userID, nil)
	if err != nil {
		return res, err
	}

	for _, row := range rows {
		name, err := blobstore.Name(row.LocalID)
		if err != nil {
			continue
		}

		localPath, err := b.blobs.Path(name)
		if err != nil {
			return res, err
		}
		localURI := filex.PathToURI(localPath)

		present, err := filex.Exists(localPath)
		if err != nil {
			return res, fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
		}

		if present {
			res.Skipped++
		} else {
			payload, err := b.download(ctx, ObjectKey(userID, name))
			if errors.Is(err, common.ErrorNotFound) {
				b.log.Warn(ctx, "blob not in backup", "photo", row.ID, "blob", name)
				res.Skipped++
				continue
			}
			if err != nil {
				return res, err
			}
			if localURI, err = b.blobs.WritePayload(name, payload); err != nil {
				return res, err
			}
			res.Transferred++
		}

		if localURI != row.LocalID {
			if err := b.repo.UpdateLocalID(ctx, row.ID, userID, localURI); err != nil {
				return res, err
			}
		}
	}

	b.log.Info(ctx, "restore finished", "downloaded", res.Transferred, "skipped", res.Skipped)
	return res, nil
}

func (b *BackupService) exists(ctx context.Context, key string) (bool, error) {
	_, err := b.store.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("head %s: %w", key, err)
}

func (b *BackupService) download(ctx context.Context, key string) ([]byte, error) {
	out, err := b.store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("object %s: %w", key, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}
