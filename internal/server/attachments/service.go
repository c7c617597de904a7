package attachments

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/dmitrijs2005/ologd/internal/server/auth"
	sc "github.com/dmitrijs2005/ologd/internal/server/config"
	"github.com/dmitrijs2005/ologd/internal/server/models"
	"github.com/dmitrijs2005/ologd/internal/server/store"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Service manages attachment lifecycle: metadata rows plus presigned upload
// and download URLs. Group ownership of the parent entry gates every
// mutating operation.
type Service struct {
	repo   Repository
	store  store.Store
	config *sc.Config
}

func NewService(repo Repository, st store.Store, config *sc.Config) *Service {
	return &Service{
		repo:   repo,
		store:  st,
		config: config,
	}
}

// GetRandomStorageKey returns a date-partitioned object key with a random
// UUID suffix.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("attachments/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *Service) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *Service) getPresignedPutURL(ctx context.Context, key string) (string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	// Presigned PUT
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))

	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *Service) getPresignedGetURL(ctx context.Context, key string) (string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	// Presigned GET
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// checkEntryAccess loads the parent entry and verifies the caller belongs to
// its owner group. Entries without an owner are open to any caller.
func (s *Service) checkEntryAccess(ctx context.Context, entryID int64) (*models.Entry, error) {
	entry, err := s.store.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, common.StoreFailure("failed to find log entry", err)
	}
	if entry == nil {
		return nil, common.NotFoundf("specified log entry '%d' does not exist", entryID)
	}
	if entry.Owner == "" {
		return entry, nil
	}
	user, ok := auth.PrincipalFrom(ctx)
	if !ok || !user.IsInGroup(entry.Owner) {
		return nil, common.Forbiddenf("user does not belong to group '%s' owning log entry '%d'", entry.Owner, entryID)
	}
	return entry, nil
}

// CreateUpload registers attachment metadata for an entry and returns the
// record together with a presigned PUT URL the client uploads to directly.
func (s *Service) CreateUpload(ctx context.Context, entryID int64, filename string) (*models.Attachment, string, error) {
	if filename == "" {
		return nil, "", common.BadRequestf("attachment filename must be set")
	}
	if _, err := s.checkEntryAccess(ctx, entryID); err != nil {
		return nil, "", err
	}

	a := &models.Attachment{
		ID:         uuid.NewString(),
		EntryID:    entryID,
		Filename:   filename,
		StorageKey: GetRandomStorageKey(),
		Uploaded:   false,
		CreatedAt:  time.Now(),
	}

	url, err := s.getPresignedPutURL(ctx, a.StorageKey)
	if err != nil {
		return nil, "", common.StoreFailure("failed to presign upload", err)
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, "", common.StoreFailure("failed to create attachment", err)
	}

	return a, url, nil
}

// CompleteUpload marks the attachment body as present in object storage.
func (s *Service) CompleteUpload(ctx context.Context, id string) error {
	a, err := s.getOwned(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.MarkUploaded(ctx, a.ID); err != nil {
		return common.StoreFailure("failed to mark attachment uploaded", err)
	}
	return nil
}

// DownloadURL returns a presigned GET URL for a fully uploaded attachment.
func (s *Service) DownloadURL(ctx context.Context, id string) (string, error) {
	a, err := s.getOwned(ctx, id)
	if err != nil {
		return "", err
	}
	if !a.Uploaded {
		return "", common.NotFoundf("attachment '%s' has no uploaded content", id)
	}
	url, err := s.getPresignedGetURL(ctx, a.StorageKey)
	if err != nil {
		return "", common.StoreFailure("failed to presign download", err)
	}
	return url, nil
}

// ListForEntry returns attachment metadata for an entry the caller may read.
func (s *Service) ListForEntry(ctx context.Context, entryID int64) ([]*models.Attachment, error) {
	if _, err := s.checkEntryAccess(ctx, entryID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListByEntryID(ctx, entryID)
	if err != nil {
		return nil, common.StoreFailure("failed to list attachments", err)
	}
	return list, nil
}

// RemoveAttachment deletes the metadata row. The object body is left for a
// storage lifecycle rule to reap.
func (s *Service) RemoveAttachment(ctx context.Context, id string) error {
	a, err := s.getOwned(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, a.ID); err != nil {
		return common.StoreFailure("failed to delete attachment", err)
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, id string) (*models.Attachment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, common.StoreFailure("failed to find attachment", err)
	}
	if a == nil {
		return nil, common.NotFoundf("specified attachment '%s' does not exist", id)
	}
	if _, err := s.checkEntryAccess(ctx, a.EntryID); err != nil {
		return nil, err
	}
	return a, nil
}
