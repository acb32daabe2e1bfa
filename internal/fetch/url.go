package fetch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/giantswarm/diskcache/internal/sentinel"
)

// ErrUnsupportedURL is returned for URLs whose scheme no fetcher handles.
const ErrUnsupportedURL = sentinel.Error("unsupported URL")

// Kind classifies a source URL.
type Kind int

const (
	// KindLocal is a file:// URL or a bare path; the file is already on disk.
	KindLocal Kind = iota
	// KindGS is a gs://bucket/object URL.
	KindGS
	// KindHTTP is an http:// or https:// URL.
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindGS:
		return "gs"
	case KindHTTP:
		return "http"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Source is a classified source URL.
type Source struct {
	Kind Kind
	URL  string
	// Path is the local filesystem path for KindLocal sources.
	Path string
}

// Classify parses raw and reports how it must be fetched. A string without a
// scheme is a local path, as is file://.
func Classify(raw string) (Source, error) {
	u, err := url.Parse(raw)
	if err != nil {
		// Local paths may contain characters url.Parse rejects.
		if !strings.Contains(raw, "://") {
			return Source{Kind: KindLocal, URL: raw, Path: raw}, nil
		}
		return Source{}, fmt.Errorf("%w: %q: %w", ErrUnsupportedURL, raw, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "":
		return Source{Kind: KindLocal, URL: raw, Path: raw}, nil
	case "file":
		if u.Host != "" && u.Host != "localhost" {
			return Source{}, fmt.Errorf("%w: %q: remote file host", ErrUnsupportedURL, raw)
		}
		return Source{Kind: KindLocal, URL: raw, Path: u.Path}, nil
	case "gs":
		if u.Host == "" || strings.Trim(u.Path, "/") == "" {
			return Source{}, fmt.Errorf("%w: %q: want gs://bucket/object", ErrUnsupportedURL, raw)
		}
		return Source{Kind: KindGS, URL: raw}, nil
	case "http", "https":
		return Source{Kind: KindHTTP, URL: raw}, nil
	default:
		return Source{}, fmt.Errorf("%w: %q: scheme %q", ErrUnsupportedURL, raw, u.Scheme)
	}
}

// SplitGSURL returns the bucket and object name of a gs:// URL.
func SplitGSURL(raw string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(raw, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q: not a gs:// URL", ErrUnsupportedURL, raw)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %q: want gs://bucket/object", ErrUnsupportedURL, raw)
	}
	return bucket, object, nil
}

// BaseName returns the last path element of a URL or path, ignoring any
// query string. It returns "download" when nothing usable remains.
func BaseName(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p == "" || p == "." || p == ".." {
		return "download"
	}
	return p
}
