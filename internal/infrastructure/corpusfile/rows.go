// Package corpusfile parses uploaded Q&A corpus files (CSV, XLSX, JSON).
package corpusfile

import (
	"fmt"
	"strings"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

var defaultColumns = map[string]int{
	"question": 0,
	"answer":   1,
	"emotion":  2,
	"category": 3,
}

// rowsToEntries maps tabular rows to entries. When the first row names a
// question and an answer column it is treated as a header; otherwise the
// columns are question, answer, emotion, category in that order.
func rowsToEntries(rows [][]string) ([]domain.QAEntry, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	columns, hasHeader := headerColumns(rows[0])
	if hasHeader {
		rows = rows[1:]
	}

	entries := make([]domain.QAEntry, 0, len(rows))
	for _, row := range rows {
		if blank(row) {
			continue
		}
		entries = append(entries, domain.QAEntry{
			Question: cell(row, columns, "question"),
			Answer:   cell(row, columns, "answer"),
			Emotion:  domain.ParseEmotion(cell(row, columns, "emotion")),
			Category: cell(row, columns, "category"),
		})
	}
	return entries, nil
}

func headerColumns(row []string) (map[string]int, bool) {
	columns := make(map[string]int, len(row))
	for i, name := range row {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, known := defaultColumns[key]; known {
			columns[key] = i
		}
	}
	_, hasQuestion := columns["question"]
	_, hasAnswer := columns["answer"]
	if hasQuestion && hasAnswer {
		return columns, true
	}
	return defaultColumns, false
}

func cell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func parseError(op string, err error) error {
	return domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("malformed corpus file: %w", err))
}
