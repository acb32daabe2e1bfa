package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type tarEntry struct {
	Name string
	Body string
	Type byte
	Link string
	Mode int64
}

// sdkEntries is the fixture layout used across extraction tests.
var sdkEntries = []tarEntry{
	{Name: "a", Body: "alpha"},
	{Name: "b", Body: "bravo", Mode: 0o755},
	{Name: "sub/", Type: tar.TypeDir},
	{Name: "sub/c", Body: "charlie"},
}

func tarBytes(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		typ := e.Type
		if typ == 0 {
			typ = tar.TypeReg
		}
		mode := e.Mode
		if mode == 0 {
			mode = 0o644
			if typ == tar.TypeDir {
				mode = 0o755
			}
		}
		hdr := &tar.Header{
			Name:     e.Name,
			Typeflag: typ,
			Linkname: e.Link,
			Mode:     mode,
			ModTime:  time.Unix(1_700_000_000, 0),
			Format:   tar.FormatPAX,
		}
		if typ == tar.TypeReg {
			hdr.Size = int64(len(e.Body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", e.Name, err)
		}
		if typ == tar.TypeReg {
			if _, err := io.WriteString(tw, e.Body); err != nil {
				t.Fatalf("write body %s: %v", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	return buf.Bytes()
}

// writeArchive writes entries as a tarball compressed with comp to
// dir/name and returns its path.
func writeArchive(t *testing.T, dir, name string, comp Compression, entries []tarEntry) string {
	t.Helper()
	raw := tarBytes(t, entries)
	var out bytes.Buffer

	switch comp {
	case CompressionNone:
		out.Write(raw)
	case CompressionGzip:
		zw := gzip.NewWriter(&out)
		if _, err := zw.Write(raw); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
	case CompressionZstd:
		zw, err := zstd.NewWriter(&out)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := zw.Write(raw); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
	case CompressionBzip2:
		if _, err := exec.LookPath("bzip2"); err != nil {
			t.Skip("bzip2 not found in PATH")
		}
		cmd := exec.Command("bzip2", "-c")
		cmd.Stdin = bytes.NewReader(raw)
		cmd.Stdout = &out
		if err := cmd.Run(); err != nil {
			t.Fatalf("bzip2: %v", err)
		}
	default:
		t.Fatalf("no fixture writer for %s", comp)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

// listTree returns every non-directory path below root, slash-separated and
// sorted.
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var got []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		got = append(got, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	slices.Sort(got)
	return got
}
