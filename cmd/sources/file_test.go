package sources

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSourceRows(t *testing.T) {
	t.Run("comma delimited", func(t *testing.T) {
		path := writeTempFile(t, "data.csv", "a,1\nb,2\n")
		source := &FileSource{Path: path, Delimiter: ','}

		rows, err := source.Rows(context.Background())
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a", "1"}, {"b", "2"}}, rows)
	})

	t.Run("semicolon delimited", func(t *testing.T) {
		path := writeTempFile(t, "data.txt", "a;1\nb;2\n")
		source := &FileSource{Path: path, Delimiter: ';'}

		rows, err := source.Rows(context.Background())
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a", "1"}, {"b", "2"}}, rows)
	})

	t.Run("quoted fields", func(t *testing.T) {
		path := writeTempFile(t, "data.csv", "\"x,y\",1\n\"line\nbreak\",2\n")
		source := &FileSource{Path: path, Delimiter: ','}

		rows, err := source.Rows(context.Background())
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"x,y", "1"}, {"line\nbreak", "2"}}, rows)
	})

	t.Run("ragged rows allowed", func(t *testing.T) {
		path := writeTempFile(t, "data.csv", "a,1,extra\nb\n")
		source := &FileSource{Path: path, Delimiter: ','}

		rows, err := source.Rows(context.Background())
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a", "1", "extra"}, {"b"}}, rows)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeTempFile(t, "empty.csv", "")
		source := &FileSource{Path: path, Delimiter: ','}

		rows, err := source.Rows(context.Background())
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("missing file", func(t *testing.T) {
		source := &FileSource{Path: filepath.Join(t.TempDir(), "nope.csv"), Delimiter: ','}

		_, err := source.Rows(context.Background())
		assert.ErrorContains(t, err, "failed to open")
	})

	t.Run("gzip compressed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.csv.gz")
		file, err := os.Create(path)
		require.NoError(t, err)
		gz := gzip.NewWriter(file)
		_, err = gz.Write([]byte("a,1\nb,2\n"))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		require.NoError(t, file.Close())

		source := &FileSource{Path: path, Delimiter: ','}
		rows, err := source.Rows(context.Background())
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"a", "1"}, {"b", "2"}}, rows)
	})

	t.Run("malformed s3 path", func(t *testing.T) {
		source := &FileSource{Path: "s3://bucket-without-key", Delimiter: ','}

		_, err := source.Rows(context.Background())
		assert.ErrorContains(t, err, "invalid S3 path")
	})
}

func TestFileSourceLabel(t *testing.T) {
	source := &FileSource{Path: "data/a.csv", Delimiter: ','}
	assert.Equal(t, "data/a.csv", source.Label())
}
