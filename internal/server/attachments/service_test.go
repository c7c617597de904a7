package attachments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/dmitrijs2005/ologd/internal/server/auth"
	sc "github.com/dmitrijs2005/ologd/internal/server/config"
	"github.com/dmitrijs2005/ologd/internal/server/models"
	"github.com/dmitrijs2005/ologd/internal/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository for tests.
type memRepo struct {
	items map[string]*models.Attachment
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[string]*models.Attachment)}
}

func (r *memRepo) Create(_ context.Context, a *models.Attachment) error {
	c := *a
	r.items[a.ID] = &c
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*models.Attachment, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *memRepo) ListByEntryID(_ context.Context, entryID int64) ([]*models.Attachment, error) {
	var result []*models.Attachment
	for _, a := range r.items {
		if a.EntryID == entryID {
			c := *a
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *memRepo) MarkUploaded(_ context.Context, id string) error {
	a, ok := r.items[id]
	if !ok {
		return errors.New("no such attachment")
	}
	a.Uploaded = true
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return errors.New("no such attachment")
	}
	delete(r.items, id)
	return nil
}

func stubPresign(t *testing.T) {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://s3.test/put/" + *in.Key}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://s3.test/get/" + *in.Key}, nil
	}
}

func newTestService(t *testing.T) (*Service, *memRepo, *store.MemoryStore) {
	t.Helper()
	repo := newMemRepo()
	st := store.NewMemoryStore()
	cfg := &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "admin",
		S3RootPassword: "secret",
		S3BaseEndpoint: "http://127.0.0.1:9000/",
		S3Bucket:       "olog-attachments",
	}
	return NewService(repo, st, cfg), repo, st
}

func ctxAs(name string, groups ...string) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{Name: name, Groups: groups})
}

func TestGetRandomStorageKey(t *testing.T) {
	k1 := GetRandomStorageKey()
	k2 := GetRandomStorageKey()

	assert.True(t, strings.HasPrefix(k1, "attachments/"))
	assert.NotEqual(t, k1, k2)
}

func TestCreateUpload(t *testing.T) {
	stubPresign(t)
	svc, repo, st := newTestService(t)
	ctx := ctxAs("alice", "ops")

	e := &models.Entry{Owner: "ops"}
	require.NoError(t, st.CreateEntry(ctx, e))

	t.Run("filename is required", func(t *testing.T) {
		_, _, err := svc.CreateUpload(ctx, e.ID, "")
		require.Error(t, err)
		assert.Equal(t, common.KindBadRequest, common.KindOf(err))
	})

	t.Run("absent entry", func(t *testing.T) {
		_, _, err := svc.CreateUpload(ctx, 999, "dump.dat")
		require.Error(t, err)
		assert.Equal(t, common.KindNotFound, common.KindOf(err))
	})

	t.Run("caller outside the owner group", func(t *testing.T) {
		_, _, err := svc.CreateUpload(ctxAs("bob", "sci"), e.ID, "dump.dat")
		require.Error(t, err)
		assert.Equal(t, common.KindForbidden, common.KindOf(err))
	})

	t.Run("registers metadata and presigns the upload", func(t *testing.T) {
		a, url, err := svc.CreateUpload(ctx, e.ID, "dump.dat")
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.NotEmpty(t, a.ID)
		assert.False(t, a.Uploaded)
		assert.Equal(t, "https://s3.test/put/"+a.StorageKey, url)

		stored, err := repo.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, e.ID, stored.EntryID)
	})
}

func TestCompleteUploadAndDownloadURL(t *testing.T) {
	stubPresign(t)
	svc, _, st := newTestService(t)
	ctx := ctxAs("alice", "ops")

	e := &models.Entry{Owner: "ops"}
	require.NoError(t, st.CreateEntry(ctx, e))

	a, _, err := svc.CreateUpload(ctx, e.ID, "dump.dat")
	require.NoError(t, err)

	t.Run("download before upload completes", func(t *testing.T) {
		_, err := svc.DownloadURL(ctx, a.ID)
		require.Error(t, err)
		assert.Equal(t, common.KindNotFound, common.KindOf(err))
	})

	require.NoError(t, svc.CompleteUpload(ctx, a.ID))

	t.Run("download after completion", func(t *testing.T) {
		url, err := svc.DownloadURL(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://s3.test/get/"+a.StorageKey, url)
	})

	t.Run("unknown attachment", func(t *testing.T) {
		err := svc.CompleteUpload(ctx, "nope")
		require.Error(t, err)
		assert.Equal(t, common.KindNotFound, common.KindOf(err))
	})
}

func TestListForEntry(t *testing.T) {
	stubPresign(t)
	svc, _, st := newTestService(t)
	ctx := ctxAs("alice", "ops")

	e := &models.Entry{Owner: "ops"}
	require.NoError(t, st.CreateEntry(ctx, e))

	_, _, err := svc.CreateUpload(ctx, e.ID, "one.dat")
	require.NoError(t, err)
	_, _, err = svc.CreateUpload(ctx, e.ID, "two.dat")
	require.NoError(t, err)

	list, err := svc.ListForEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListForEntry(ctxAs("bob", "sci"), e.ID)
	require.Error(t, err)
	assert.Equal(t, common.KindForbidden, common.KindOf(err))
}

func TestRemoveAttachment(t *testing.T) {
	stubPresign(t)
	svc, repo, st := newTestService(t)
	ctx := ctxAs("alice", "ops")

	e := &models.Entry{Owner: "ops"}
	require.NoError(t, st.CreateEntry(ctx, e))

	a, _, err := svc.CreateUpload(ctx, e.ID, "dump.dat")
	require.NoError(t, err)

	t.Run("ownership gates removal", func(t *testing.T) {
		err := svc.RemoveAttachment(ctxAs("bob", "sci"), a.ID)
		require.Error(t, err)
		assert.Equal(t, common.KindForbidden, common.KindOf(err))
	})

	require.NoError(t, svc.RemoveAttachment(ctx, a.ID))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = svc.RemoveAttachment(ctx, a.ID)
	require.Error(t, err)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestUnownedEntryIsOpen(t *testing.T) {
	stubPresign(t)
	svc, _, st := newTestService(t)

	e := &models.Entry{Owner: ""}
	require.NoError(t, st.CreateEntry(context.Background(), e))

	_, _, err := svc.CreateUpload(context.Background(), e.ID, "dump.dat")
	require.NoError(t, err)
}
