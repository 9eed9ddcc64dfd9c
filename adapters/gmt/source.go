package gmt

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Opener opens a catalog resource by location.
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// FileOpener reads catalogs from the local filesystem.
type FileOpener struct{}

func (FileOpener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// SchemeOpener routes locations by prefix, falling back to Default.
type SchemeOpener struct {
	Default Opener
	Schemes map[string]Opener // prefix (e.g. "s3://") -> opener
}

func (o SchemeOpener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	for prefix, opener := range o.Schemes {
		if strings.HasPrefix(location, prefix) {
			return opener.Open(ctx, location)
		}
	}
	if o.Default == nil {
		return nil, fmt.Errorf("no opener for %q", location)
	}
	return o.Default.Open(ctx, location)
}

// gzipReadCloser closes both the decompressor and the underlying resource.
type gzipReadCloser struct {
	*gzip.Reader
	raw io.Closer
}

func (g *gzipReadCloser) Close() error {
	zerr := g.Reader.Close()
	if err := g.raw.Close(); err != nil {
		return err
	}
	return zerr
}

// openResource opens location and transparently decompresses .gz resources.
func openResource(ctx context.Context, opener Opener, location string) (io.ReadCloser, error) {
	rc, err := opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(strings.ToLower(location), ".gz") {
		return rc, nil
	}
	zr, err := gzip.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	return &gzipReadCloser{Reader: zr, raw: rc}, nil
}
