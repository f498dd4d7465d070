// Package csvparse tokenizes CSV feed text into header-keyed rows.
package csvparse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/jszwec/csvutil"
)

// Parser implements pipeline.Tokenizer.
type Parser struct{}

// New returns a CSV parser.
func New() Parser { return Parser{} }

// Parse reads text with a header row. Empty text yields an empty table.
func (Parser) Parse(text string) (domain.Table, error) {
	return Parse(text)
}

// Parse reads text with a header row into a Table. Empty text yields an empty
// table; a row whose field count differs from the header is an error.
func Parse(text string) (domain.Table, error) {
	text = strings.TrimPrefix(text, "\ufeff")

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Table{}, nil
		}
		return domain.Table{}, fmt.Errorf("read csv header: %w", err)
	}

	header := append([]string(nil), dec.Header()...)
	table := domain.Table{Header: header}

	for line := 2; ; line++ {
		// Only the raw record is needed; an empty struct maps no columns.
		var discard struct{}
		if err := dec.Decode(&discard); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return domain.Table{}, fmt.Errorf("read csv line %d: %w", line, err)
		}

		// Decode has already rejected records whose length differs from the header.
		record := dec.Record()
		row := make(domain.RawRow, len(header))
		for i, h := range header {
			row[h] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
