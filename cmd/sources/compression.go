package sources

import (
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// newDecompressingReader wraps r with a decompressor chosen by the path's
// extension. The returned closer releases decompressor state; the caller
// still owns the underlying reader.
func newDecompressingReader(r io.Reader, path string) (io.Reader, func() error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gzReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, gzReader.Close, nil
	case ".zst":
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error { decoder.Close(); return nil }, nil
	case ".lz4":
		// lz4.Reader has no Close method
		return lz4.NewReader(r), func() error { return nil }, nil
	case ".xz":
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		// xz.Reader doesn't have a Close method
		return xzReader, func() error { return nil }, nil
	default:
		return r, func() error { return nil }, nil
	}
}
