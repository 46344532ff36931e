package catalog

import (
	"context"
	"os"
	"strings"

	"github.com/aleister1102/userprobe/internal/common"
	"github.com/aleister1102/userprobe/internal/httpclient"
)

// Fetcher retrieves remote catalog documents
type Fetcher interface {
	FetchContent(ctx context.Context, url string) ([]byte, error)
}

var _ Fetcher = (*httpclient.HTTPClient)(nil)

// Load reads source, an http(s) URL or a local file path, and parses it
func Load(ctx context.Context, source string, fetcher Fetcher, opts ...Option) (*Catalog, error) {
	data, err := readSource(ctx, source, fetcher)
	if err != nil {
		return nil, err
	}
	return Parse(data, opts...)
}

func readSource(ctx context.Context, source string, fetcher Fetcher) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if fetcher == nil {
			return nil, common.NewValidationError("source", source, "remote catalog needs an HTTP fetcher")
		}
		data, err := fetcher.FetchContent(ctx, source)
		if err != nil {
			return nil, common.WrapErrorf(err, "failed to fetch catalog from '%s'", source)
		}
		return data, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to read catalog file '%s'", source)
	}
	return data, nil
}
