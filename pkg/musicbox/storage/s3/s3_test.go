package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	if in.Body != nil {
		_, _ = io.Copy(io.Discard, in.Body)
	}
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.UploadPartOutput)
	return out, args.Error(1)
}

func (m *mockClient) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockClient) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockClient) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *mockClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *mockClient) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func (m *mockClient) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.HeadBucketOutput)
	return out, args.Error(1)
}

func (m *mockClient) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.CreateBucketOutput)
	return out, args.Error(1)
}

func keyIs(key string) func(in any) bool {
	return func(in any) bool {
		switch v := in.(type) {
		case *s3.PutObjectInput:
			return aws.ToString(v.Key) == key
		case *s3.GetObjectInput:
			return aws.ToString(v.Key) == key
		case *s3.DeleteObjectInput:
			return aws.ToString(v.Key) == key
		}
		return false
	}
}

func TestS3Backend_Configuration(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})
}

func TestS3Backend_Upload(t *testing.T) {
	client := new(mockClient)
	backend := NewWithClient(client, Config{Bucket: "media"})
	ctx := context.Background()

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "media" &&
			aws.ToString(in.Key) == "artist/1/avatar/a.png" &&
			aws.ToString(in.ContentType) == "image/png"
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	err := backend.Upload(ctx, bytes.NewReader([]byte("png")), musicbox.UploadParams{
		ObjectKey: "artist/1/avatar/a.png",
		MimeType:  "image/png",
		Size:      3,
	})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestS3Backend_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		client := new(mockClient)
		backend := NewWithClient(client, Config{Bucket: "media"})
		client.On("GetObject", mock.Anything, mock.MatchedBy(keyIs("user/1/avatar/a.png"))).
			Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("data")))}, nil)

		rc, err := backend.Download(ctx, "user/1/avatar/a.png")
		require.NoError(t, err)
		data, _ := io.ReadAll(rc)
		assert.Equal(t, "data", string(data))
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		client := new(mockClient)
		backend := NewWithClient(client, Config{Bucket: "media"})
		client.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{})

		_, err := backend.Download(ctx, "missing")
		assert.ErrorIs(t, err, musicbox.ErrObjectNotFound)
	})

	t.Run("generic API not found", func(t *testing.T) {
		client := new(mockClient)
		backend := NewWithClient(client, Config{Bucket: "media"})
		client.On("GetObject", mock.Anything, mock.Anything).
			Return(nil, &smithy.GenericAPIError{Code: "NotFound", Message: "gone"})

		_, err := backend.Download(ctx, "missing")
		assert.ErrorIs(t, err, musicbox.ErrObjectNotFound)
	})

	t.Run("other failure", func(t *testing.T) {
		client := new(mockClient)
		backend := NewWithClient(client, Config{Bucket: "media"})
		client.On("GetObject", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

		_, err := backend.Download(ctx, "k")
		require.Error(t, err)
		assert.NotErrorIs(t, err, musicbox.ErrNotFound)
	})
}

func TestS3Backend_Delete(t *testing.T) {
	ctx := context.Background()
	client := new(mockClient)
	backend := NewWithClient(client, Config{Bucket: "media"})

	client.On("DeleteObject", mock.Anything, mock.MatchedBy(keyIs("a"))).Return(&s3.DeleteObjectOutput{}, nil)
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(keyIs("b"))).Return(nil, &types.NoSuchKey{})
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(keyIs("c"))).Return(nil, errors.New("denied"))

	assert.NoError(t, backend.Delete(ctx, "a"))
	assert.NoError(t, backend.Delete(ctx, "b"))
	assert.Error(t, backend.Delete(ctx, "c"))
	assert.NoError(t, backend.DeleteDirIfEmpty(ctx, "artist/1"))
}

func TestS3Backend_List(t *testing.T) {
	client := new(mockClient)
	backend := NewWithClient(client, Config{Bucket: "media"})

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{{Key: aws.String("artist/1/avatar/a.png")}},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("next"),
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "next"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String("artist/1/cover/b.jpg")}},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	keys, err := backend.List(context.Background(), "artist/1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"artist/1/avatar/a.png", "artist/1/cover/b.jpg"}, keys)
	client.AssertExpectations(t)
}
