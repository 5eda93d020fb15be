package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/blogkeeper/internal/netx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

func newStore(endpoint string) *S3Store {
	s := NewS3Store(S3Config{
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		Bucket:       "blog",
		Region:       "us-east-1",
		BaseEndpoint: endpoint,
	}, netx.NewHTTPClient(5*time.Second))
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestImageKey(t *testing.T) {
	key, err := ImageKey("u-1", "image/jpeg", fixedNow)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "images/u-1/2025/03/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)

	key, err = ImageKey("u-1", "image/bmp", fixedNow)
	require.NoError(t, err)
	assert.False(t, strings.Contains(key[strings.LastIndex(key, "/"):], "."), key)
}

func TestPut_UploadsThroughPresignedURL(t *testing.T) {
	var gotPath, gotMethod, gotCT string
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		assert.NotEmpty(t, r.URL.Query().Get("X-Amz-Signature"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	key, err := newStore(ts.URL).Put(context.Background(), "u-1", []byte("png-bytes"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/blog/"+key, gotPath)
	assert.Equal(t, "image/png", gotCT)
	assert.Equal(t, []byte("png-bytes"), gotBody)
}

func TestPut_UploadRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := newStore(ts.URL).Put(context.Background(), "u-1", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestURL_PresignsGet(t *testing.T) {
	url, err := newStore("http://127.0.0.1:9000").URL(context.Background(), "images/u-1/a.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/blog/images/u-1/a.png?"), url)
	assert.Contains(t, url, "X-Amz-Expires=900")
}

func TestPresign_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("config load", func(t *testing.T) {
		orig := loadDefaultAWSConfig
		t.Cleanup(func() { loadDefaultAWSConfig = orig })
		loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
			return aws.Config{}, errors.New("no config")
		}

		_, err := newStore("").URL(ctx, "k")
		require.ErrorContains(t, err, "no config")
		_, err = newStore("").Put(ctx, "u-1", []byte("x"), "image/png")
		require.ErrorContains(t, err, "no config")
	})

	t.Run("presign get", func(t *testing.T) {
		orig := presignGetObject
		t.Cleanup(func() { presignGetObject = orig })
		presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
			return nil, errors.New("sign failed")
		}

		_, err := newStore("").URL(ctx, "k")
		require.ErrorContains(t, err, "presign get")
	})

	t.Run("presign put", func(t *testing.T) {
		origPut, origUpload := presignPutObject, uploadToPresignedURL
		t.Cleanup(func() { presignPutObject, uploadToPresignedURL = origPut, origUpload })
		presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
			return nil, errors.New("sign failed")
		}
		called := false
		uploadToPresignedURL = func(ctx context.Context, client *http.Client, url string, body []byte, contentType string) error {
			called = true
			return nil
		}

		_, err := newStore("").Put(ctx, "u-1", []byte("x"), "image/png")
		require.ErrorContains(t, err, "presign put")
		assert.False(t, called)
	})
}
