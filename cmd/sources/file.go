package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
)

// FileSource reads a delimited text file. Files ending in a known
// compression extension are decompressed transparently, and s3:// paths are
// fetched to a temp file first.
type FileSource struct {
	Path      string
	Delimiter rune
}

// Label returns the file path as given on the command line.
func (s *FileSource) Label() string {
	return s.Path
}

// Rows parses the file into records, one per text line, in file order.
func (s *FileSource) Rows(ctx context.Context) ([][]string, error) {
	path := s.Path
	if isS3Path(path) {
		local, cleanup, err := fetchS3Object(ctx, path)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		path = local
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.Path, err)
	}
	defer file.Close()

	reader, closeReader, err := newDecompressingReader(file, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	defer func() { _ = closeReader() }()

	csvReader := csv.NewReader(reader)
	csvReader.Comma = s.Delimiter
	csvReader.FieldsPerRecord = -1 // ragged rows are allowed

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.Path, err)
	}
	return records, nil
}
