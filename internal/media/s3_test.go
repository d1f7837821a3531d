package media

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectAPI struct {
	put     *s3.PutObjectInput
	putBody string
	deleted *s3.DeleteObjectInput
	err     error
}

func (f *fakeObjectAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.putBody = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = in
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_Upload(t *testing.T) {
	api := &fakeObjectAPI{}
	store := newS3Store(api, S3Config{Bucket: "thumbs", PublicBaseURL: "https://cdn.example.com/"})

	url, err := store.Upload(context.Background(), "courses/c1/thumbnail-x.png", "image/png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/courses/c1/thumbnail-x.png", url)
	assert.Equal(t, "thumbs", aws.ToString(api.put.Bucket))
	assert.Equal(t, "courses/c1/thumbnail-x.png", aws.ToString(api.put.Key))
	assert.Equal(t, "image/png", aws.ToString(api.put.ContentType))
	assert.Equal(t, "PNGDATA", api.putBody)
}

func TestS3Store_UploadError(t *testing.T) {
	store := newS3Store(&fakeObjectAPI{err: errors.New("access denied")}, S3Config{Bucket: "thumbs"})

	_, err := store.Upload(context.Background(), "k", "", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3Store_Delete(t *testing.T) {
	api := &fakeObjectAPI{}
	store := newS3Store(api, S3Config{Bucket: "thumbs"})

	require.NoError(t, store.Delete(context.Background(), "courses/c1/thumbnail-x.png"))
	assert.Equal(t, "courses/c1/thumbnail-x.png", aws.ToString(api.deleted.Key))
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{
			name: "explicit public url",
			cfg:  S3Config{PublicBaseURL: "https://cdn.example.com/", Endpoint: "http://minio:9000", Bucket: "b"},
			want: "https://cdn.example.com",
		},
		{
			name: "custom endpoint is path style",
			cfg:  S3Config{Endpoint: "http://localhost:9000/", Bucket: "thumbs"},
			want: "http://localhost:9000/thumbs",
		},
		{
			name: "aws virtual hosted",
			cfg:  S3Config{Bucket: "thumbs", Region: "eu-west-1"},
			want: "https://thumbs.s3.eu-west-1.amazonaws.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicBaseURL(tt.cfg))
		})
	}
}

func TestThumbnailKey(t *testing.T) {
	key := ThumbnailKey("c123", "My Photo.PNG")
	assert.Regexp(t, regexp.MustCompile(`^courses/c123/thumbnail-[0-9a-f-]{36}\.png$`), key)
	assert.NotEqual(t, key, ThumbnailKey("c123", "My Photo.PNG"))

	assert.Regexp(t, `^courses/c1/thumbnail-[0-9a-f-]{36}$`, ThumbnailKey("c1", "noext"))
}
