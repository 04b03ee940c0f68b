package hmod

import (
	"archive/tar"
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

// tarEntry describes one record written by buildTar.
type tarEntry struct {
	name     string
	linkname string
	data     []byte
	mode     int64
	typeflag byte
}

// buildTar writes raw uncompressed tar stream with entries in provided order.
func buildTar(tb testing.TB, entries []tarEntry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		typeflag := e.typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}

		mode := e.mode
		if mode == 0 {
			mode = 0o644
			if typeflag == tar.TypeDir {
				mode = 0o755
			}
		}

		hdr := &tar.Header{
			Name:     e.name,
			Linkname: e.linkname,
			Mode:     mode,
			Typeflag: typeflag,
			ModTime:  time.Unix(1500000000, 0),
		}
		if typeflag == tar.TypeReg {
			hdr.Size = int64(len(e.data))
		}

		if err := tw.WriteHeader(hdr); err != nil {
			tb.Fatalf("write tar header %s: %v", e.name, err)
		}
		if hdr.Size > 0 {
			if _, err := tw.Write(e.data); err != nil {
				tb.Fatalf("write tar data %s: %v", e.name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		tb.Fatalf("close tar: %v", err)
	}

	return buf.Bytes()
}

// gzipBytes compresses data as one gzip member.
func gzipBytes(tb testing.TB, data []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		tb.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("gzip close: %v", err)
	}

	return buf.Bytes()
}

// buildTarGz returns gzip-compressed tar stream.
func buildTarGz(tb testing.TB, entries []tarEntry) []byte {
	tb.Helper()
	return gzipBytes(tb, buildTar(tb, entries))
}

// writeTarGzFile writes tar.gz stream to dir/name and returns full path.
func writeTarGzFile(tb testing.TB, dir string, name string, entries []tarEntry) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buildTarGz(tb, entries), 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}

	return path
}

// mustReadArchive decodes tar.gz built from entries.
func mustReadArchive(tb testing.TB, entries []tarEntry) *Archive {
	tb.Helper()

	a, err := ReadArchive(bytes.NewReader(buildTarGz(tb, entries)))
	if err != nil {
		tb.Fatalf("ReadArchive: %v", err)
	}

	return a
}

// noiseBytes returns deterministic incompressible payload.
func noiseBytes(n int, seed int64) []byte {
	out := make([]byte, n)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // test data
	_, _ = rng.Read(out)
	return out
}
