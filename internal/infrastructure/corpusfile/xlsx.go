package corpusfile

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

// XLSXParser reads the first worksheet of a workbook.
type XLSXParser struct{}

func (XLSXParser) Parse(_ context.Context, _ string, body io.Reader) ([]domain.QAEntry, error) {
	book, err := excelize.OpenReader(body)
	if err != nil {
		return nil, parseError("open xlsx corpus", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseError("read xlsx corpus", fmt.Errorf("workbook has no sheets"))
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, parseError("read xlsx corpus", err)
	}
	return rowsToEntries(rows)
}
