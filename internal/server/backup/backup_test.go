package backup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
)

type fakeSource struct {
	users []models.User
	err   error
}

func (f fakeSource) GetAll(context.Context) ([]models.User, error) { return f.users, f.err }

type fakeStore struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeStore) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

type fakePresigner struct {
	err error
}

func (f fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://s3.local/" + *in.Bucket + "/" + *in.Key + "?sig"}, nil
}

func TestObjectKey(t *testing.T) {
	k := ObjectKey(time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^backups/2026/03/07/[0-9a-f-]{36}\.json$`), k)
}

func TestSnapshot(t *testing.T) {
	users := []models.User{
		{ID: "01", Name: "Ana", Email: "ana@example.com", Password: "$2a$hash", CreatedAt: "c"},
		{ID: "02", Name: "Bob", Email: "bob@example.com", CreatedAt: "c"},
	}
	store := &fakeStore{}
	svc := NewService(fakeSource{users: users}, store, fakePresigner{}, "snapshots", logging.Nop{})
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }

	res, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "snapshots", res.Bucket)
	assert.Equal(t, 2, res.Count)
	assert.Contains(t, res.Key, "backups/2026/10/18/")
	assert.Equal(t, "https://s3.local/snapshots/"+res.Key+"?sig", res.DownloadURL)

	require.NotNil(t, store.in)
	assert.Equal(t, "snapshots", *store.in.Bucket)
	assert.Equal(t, res.Key, *store.in.Key)
	assert.Equal(t, "application/json", *store.in.ContentType)

	var uploaded []models.User
	require.NoError(t, json.Unmarshal(store.body, &uploaded))
	assert.Equal(t, users, uploaded, "hashes are kept so the snapshot can be restored")
}

func TestSnapshot_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewService(fakeSource{err: boom}, &fakeStore{}, nil, "b", logging.Nop{}).Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = NewService(fakeSource{}, &fakeStore{err: boom}, nil, "b", logging.Nop{}).Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)

	res, err := NewService(fakeSource{}, &fakeStore{}, fakePresigner{err: boom}, "b", logging.Nop{}).Snapshot(context.Background())
	require.NoError(t, err, "presign failure is not fatal")
	assert.Empty(t, res.DownloadURL)
	assert.Equal(t, 0, res.Count)
}

func TestNewS3Client(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.S3BaseEndpoint = "http://minio:9000"

	client, err := NewS3Client(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	o := client.Options()
	require.NotNil(t, o.BaseEndpoint)
	assert.Equal(t, "http://minio:9000", *o.BaseEndpoint)
	assert.True(t, o.UsePathStyle)
	assert.Equal(t, "us-east-1", o.Region)

	var _ Presigner = s3.NewPresignClient(client)
}

func TestNewS3Client_ConfigError(t *testing.T) {
	orig := loadAWSConfig
	loadAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	defer func() { loadAWSConfig = orig }()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	_, err := NewS3Client(context.Background(), cfg)
	require.Error(t, err)

	var _ ObjectStore = (*s3.Client)(nil)
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	svc, err := FromConfig(context.Background(), cfg, fakeSource{}, logging.Nop{})
	require.NoError(t, err)
	assert.Nil(t, svc, "no bucket means backups are disabled")

	cfg.S3Bucket = "users"
	svc, err = FromConfig(context.Background(), cfg, fakeSource{}, logging.Nop{})
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, "users", svc.bucket)
}
