package corpusfile

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

type CSVParser struct{}

func (CSVParser) Parse(_ context.Context, _ string, body io.Reader) ([]domain.QAEntry, error) {
	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, parseError("parse csv corpus", err)
	}
	return rowsToEntries(rows)
}
