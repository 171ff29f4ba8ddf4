package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestPutReturnsPublicURL(t *testing.T) {
	putter := &fakePutter{}
	store := &S3Store{client: putter, bucket: "notices", publicURL: "https://cdn.example.com"}

	url, err := store.Put(context.Background(), "1760572800000_0011223344556677.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/1760572800000_0011223344556677.jpg", url)
	assert.Equal(t, "notices", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(putter.input.ContentType))
	assert.Equal(t, types.ObjectCannedACLPublicRead, putter.input.ACL)
	assert.Equal(t, []byte("jpeg"), putter.body)
}

func TestPutWrapsError(t *testing.T) {
	cause := errors.New("access denied")
	store := &S3Store{client: &fakePutter{err: cause}, bucket: "b", publicURL: "https://x"}

	_, err := store.Put(context.Background(), "k.png", []byte{1}, "image/png")
	assert.ErrorIs(t, err, cause)
}
