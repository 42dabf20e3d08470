package static

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Row maps column names to values. A nil value marks a column whose source
// text was empty: true-empty and missing collapse to the same null.
type Row = map[string]any

// MalformedRowError indicates a data row whose column count disagrees with
// the header, or text that does not parse as delimited data at all.
type MalformedRowError struct {
	Member string
	Line   int
	Err    error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row in %s line %d: %v", e.Member, e.Line, e.Err)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

// Extract parses the named archive member as delimited text. The first row
// defines the column set; every later row yields one Row with exactly those
// columns, empty strings coerced to nil, source order preserved. Each range
// over the sequence re-opens the member, which is what makes it
// restartable: the underlying stream itself is single-pass.
func Extract(a *Archive, member string) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rc, err := a.Open(member)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rc.Close()

		reader := csv.NewReader(rc)

		header, err := reader.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			yield(nil, &MalformedRowError{Member: member, Line: 1, Err: err})
			return
		}
		// Files exported from Windows tooling often lead with a BOM.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")

		for {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				line := 0
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					line = parseErr.Line
				}
				yield(nil, &MalformedRowError{Member: member, Line: line, Err: err})
				return
			}

			row := make(Row, len(header))
			for i, column := range header {
				if record[i] == "" {
					row[column] = nil
				} else {
					row[column] = record[i]
				}
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}
