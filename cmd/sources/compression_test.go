package sources

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestNewDecompressingReader(t *testing.T) {
	payload := "a,1\nb,2\n"

	t.Run("passthrough", func(t *testing.T) {
		reader, closeReader, err := newDecompressingReader(strings.NewReader(payload), "data.csv")
		require.NoError(t, err)
		defer func() { require.NoError(t, closeReader()) }()

		got, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, payload, string(got))
	})

	t.Run("gzip", func(t *testing.T) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, err := gz.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, gz.Close())

		reader, closeReader, err := newDecompressingReader(&buf, "data.csv.gz")
		require.NoError(t, err)
		defer func() { require.NoError(t, closeReader()) }()

		got, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, payload, string(got))
	})

	t.Run("zstd", func(t *testing.T) {
		var buf bytes.Buffer
		encoder, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = encoder.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, encoder.Close())

		reader, closeReader, err := newDecompressingReader(&buf, "data.csv.zst")
		require.NoError(t, err)
		defer func() { require.NoError(t, closeReader()) }()

		got, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, payload, string(got))
	})

	t.Run("lz4", func(t *testing.T) {
		var buf bytes.Buffer
		writer := lz4.NewWriter(&buf)
		_, err := writer.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		reader, closeReader, err := newDecompressingReader(&buf, "data.csv.lz4")
		require.NoError(t, err)
		defer func() { require.NoError(t, closeReader()) }()

		got, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, payload, string(got))
	})

	t.Run("xz", func(t *testing.T) {
		var buf bytes.Buffer
		writer, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		_, err = writer.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		reader, closeReader, err := newDecompressingReader(&buf, "data.csv.xz")
		require.NoError(t, err)
		defer func() { require.NoError(t, closeReader()) }()

		got, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, payload, string(got))
	})

	t.Run("extension case-insensitive", func(t *testing.T) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, err := gz.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, gz.Close())

		reader, closeReader, err := newDecompressingReader(&buf, "DATA.CSV.GZ")
		require.NoError(t, err)
		defer func() { require.NoError(t, closeReader()) }()

		got, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, payload, string(got))
	})
}
