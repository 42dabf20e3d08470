package warehouse

import (
	"iter"

	"github.com/push-ai/mta-rtf/internal/static"
)

// Row is one flat record bound for a warehouse table.
type Row = map[string]any

// Resource is the handoff unit between the extractors and the loader: a
// named lazy row sequence plus the load discipline and key column as
// metadata. Ranging the sequence may be done more than once; each pass
// re-derives the rows.
type Resource struct {
	Name        string
	PrimaryKey  string
	Disposition static.Disposition
	Rows        iter.Seq2[Row, error]
}

// Count drains the resource and returns how many rows it yields. Used by
// dry runs where no destination is configured.
func (r Resource) Count() (int64, error) {
	var n int64
	for _, err := range r.Rows {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
