package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

func newFakeBucket(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()

		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func testS3Config(endpoint string) S3UploaderConfig {
	return S3UploaderConfig{
		Bucket:          "brackets",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		PublicBaseURL:   "https://cdn.example.com/brackets",
	}
}

func TestS3UploadAndDelete(t *testing.T) {
	srv, requests := newFakeBucket(t)
	ctx := context.Background()

	u, err := NewS3Uploader(ctx, testS3Config(srv.URL))
	require.NoError(t, err)

	result, err := u.Upload(ctx, "1a2b3c4d_bracket.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/brackets/1a2b3c4d_bracket.png", result.Location)

	require.NoError(t, u.Delete(ctx, "1a2b3c4d_bracket.png"))

	recorded := requests()
	require.Len(t, recorded, 2)
	assert.Equal(t, http.MethodPut, recorded[0].Method)
	assert.Equal(t, "/brackets/1a2b3c4d_bracket.png", recorded[0].Path)
	assert.Contains(t, recorded[0].Body, "png-bytes")
	assert.Equal(t, http.MethodDelete, recorded[1].Method)
	assert.Equal(t, "/brackets/1a2b3c4d_bracket.png", recorded[1].Path)
}

func TestNewS3UploaderValidation(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), S3UploaderConfig{Bucket: "brackets"})
	assert.Error(t, err)

	_, err = NewS3Uploader(context.Background(), S3UploaderConfig{PublicBaseURL: "https://cdn.example.com"})
	assert.Error(t, err)
}

func TestNewS3UploaderConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := NewS3Uploader(context.Background(), testS3Config("http://127.0.0.1:9000"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load-fail")
}

func TestS3PublicURL(t *testing.T) {
	u := &s3Uploader{publicBaseURL: "https://cdn.example.com/brackets/"}

	assert.Equal(t, "https://cdn.example.com/brackets/x.png", u.GetPublicURL("x.png"))
	assert.Equal(t, "", u.GetPublicURL(""))
}
