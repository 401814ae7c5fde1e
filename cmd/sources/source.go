package sources

import "context"

// Source yields an ordered table of text rows from one side of a comparison.
// Both file and query sources resolve to the same row-sequence abstraction.
type Source interface {
	// Label identifies the source in reports.
	Label() string

	// Rows reads the whole source, one []string per row, in source order.
	// Ragged rows are returned as-is; padding is the comparator's concern.
	Rows(ctx context.Context) ([][]string, error)
}
