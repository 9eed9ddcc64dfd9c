package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// objectRoundTripper serves path-style GETs from an in-memory bucket map.
type objectRoundTripper struct {
	objects map[string][]byte // "bucket/key" -> body
}

func (m *objectRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	path := strings.TrimPrefix(req.URL.Path, "/")
	body, ok := m.objects[path]
	if req.Method != http.MethodGet || !ok {
		msg := `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Header:     http.Header{"Content-Type": []string{"application/xml"}},
			Body:       io.NopCloser(strings.NewReader(msg)),
			Request:    req,
		}, nil
	}
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{"Content-Type": []string{"text/plain"}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

func newTestOpener(t *testing.T, objects map[string][]byte) *Opener {
	t.Helper()
	o, err := New(context.Background(), Config{
		Region:     "us-east-1",
		Endpoint:   "https://mock.s3.local",
		PathStyle:  true,
		HTTPClient: &http.Client{Transport: &objectRoundTripper{objects: objects}},
	}, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")))
	require.NoError(t, err)
	return o
}

func TestOpener_Open(t *testing.T) {
	gmt := []byte("Apoptosis\tR-HSA-109581\tTP53\tBAX\n")
	o := newTestOpener(t, map[string][]byte{"catalogs/human.gmt": gmt})

	rc, err := o.Open(context.Background(), "s3://catalogs/human.gmt")
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, gmt, got)
}

func TestOpener_MissingObject(t *testing.T) {
	o := newTestOpener(t, map[string][]byte{})

	_, err := o.Open(context.Background(), "s3://catalogs/mouse.gmt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://catalogs/mouse.gmt")
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		in      string
		bucket  string
		key     string
		wantErr bool
	}{
		{in: "s3://bucket/key.gmt", bucket: "bucket", key: "key.gmt"},
		{in: "s3://bucket/nested/path/h.gmt.gz", bucket: "bucket", key: "nested/path/h.gmt.gz"},
		{in: "s3://bucket", wantErr: true},
		{in: "s3:///key", wantErr: true},
		{in: "/local/file.gmt", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, key, err := ParseURI(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}
