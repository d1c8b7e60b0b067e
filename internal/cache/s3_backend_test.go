package cache

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *mockS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

func objectKeyIs(key string) interface{} {
	return mock.MatchedBy(func(in interface{}) bool {
		switch v := in.(type) {
		case *s3.GetObjectInput:
			return aws.ToString(v.Key) == key && aws.ToString(v.Bucket) == "artifacts"
		case *s3.PutObjectInput:
			return aws.ToString(v.Key) == key && aws.ToString(v.Bucket) == "artifacts"
		case *s3.DeleteObjectInput:
			return aws.ToString(v.Key) == key && aws.ToString(v.Bucket) == "artifacts"
		}
		return false
	})
}

func TestS3BackendGetAndPut(t *testing.T) {
	ctx := context.Background()
	client := new(mockS3)
	backend := NewS3Backend(client, "artifacts", "/analytics/")
	key := testKey(t, "s3")
	objectKey := "analytics/" + key.String() + ".msgpack"

	client.On("GetObject", mock.Anything, objectKeyIs(objectKey)).
		Return(nil, &types.NoSuchKey{}).Once()
	client.On("PutObject", mock.Anything, objectKeyIs(objectKey)).
		Return(&s3.PutObjectOutput{}, nil).Once()
	client.On("GetObject", mock.Anything, objectKeyIs(objectKey)).
		Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("payload")))}, nil).Once()

	_, ok, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Put(ctx, key, []byte("payload")))

	data, ok, err := backend.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), data)

	client.AssertExpectations(t)
}

func TestS3BackendGetError(t *testing.T) {
	client := new(mockS3)
	backend := NewS3Backend(client, "artifacts", "")
	key := testKey(t, "s3-error")

	client.On("GetObject", mock.Anything, objectKeyIs(key.String()+".msgpack")).
		Return(nil, errors.New("access denied"))

	_, _, err := backend.Get(context.Background(), key)
	assert.ErrorContains(t, err, "access denied")
}

func TestS3BackendClear(t *testing.T) {
	client := new(mockS3)
	backend := NewS3Backend(client, "artifacts", "analytics")

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Prefix) == "analytics/" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("analytics/a.msgpack")},
			{Key: aws.String("analytics/readme.txt")},
		},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page-2"),
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "page-2"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String("analytics/b.msgpack")}},
		IsTruncated: aws.Bool(false),
	}, nil).Once()
	client.On("DeleteObject", mock.Anything, objectKeyIs("analytics/a.msgpack")).Return(&s3.DeleteObjectOutput{}, nil).Once()
	client.On("DeleteObject", mock.Anything, objectKeyIs("analytics/b.msgpack")).Return(&s3.DeleteObjectOutput{}, nil).Once()

	n, err := backend.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	client.AssertExpectations(t)
}
