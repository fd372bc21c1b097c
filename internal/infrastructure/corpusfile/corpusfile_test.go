package corpusfile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

func TestCSVParserWithHeaderInAnyOrder(t *testing.T) {
	body := "category,answer,question,emotion\n" +
		"growth,\"Be patient, you are learning.\",How do I stay patient?,Anxious\n" +
		",,,\n" +
		"family,Call them today.,Should I call my mother?,\n"

	entries, err := CSVParser{}.Parse(context.Background(), "corpus.csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0]
	if first.Question != "How do I stay patient?" || first.Answer != "Be patient, you are learning." {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Emotion != domain.EmotionAnxious || first.Category != "growth" {
		t.Fatalf("unexpected emotion/category: %+v", first)
	}
	if entries[1].Emotion != domain.EmotionNone {
		t.Fatalf("expected empty emotion, got %q", entries[1].Emotion)
	}
}

func TestCSVParserWithoutHeaderUsesPositionalColumns(t *testing.T) {
	body := "I feel alone,You are not alone.,lonely\nWhy pray?,To stay close.\n"

	entries, err := CSVParser{}.Parse(context.Background(), "corpus.csv", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Emotion != domain.EmotionLonely || entries[1].Answer != "To stay close." {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestCSVParserMalformedQuotes(t *testing.T) {
	_, err := CSVParser{}.Parse(context.Background(), "corpus.csv", strings.NewReader("question,answer\n\"broken,row\n"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestXLSXParserReadsFirstSheet(t *testing.T) {
	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)
	rows := [][]interface{}{
		{"Question", "Answer", "Emotion"},
		{"How can I forgive?", "Start with small steps.", "guilty"},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := book.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	buf, err := book.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}

	entries, err := XLSXParser{}.Parse(context.Background(), "corpus.xlsx", buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Question != "How can I forgive?" || entries[0].Emotion != domain.EmotionGuilty {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestXLSXParserRejectsGarbage(t *testing.T) {
	_, err := XLSXParser{}.Parse(context.Background(), "corpus.xlsx", strings.NewReader("not a workbook"))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestJSONParserAcceptsBothShapes(t *testing.T) {
	for _, body := range []string{
		`[{"question":"q1","answer":"a1","emotion":"SAD"}]`,
		`{"entries":[{"question":"q1","answer":"a1","emotion":"sad"}]}`,
	} {
		entries, err := JSONParser{}.Parse(context.Background(), "corpus.json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("Parse(%s) error = %v", body, err)
		}
		if len(entries) != 1 || entries[0].Emotion != domain.EmotionSad {
			t.Fatalf("unexpected entries for %s: %+v", body, entries)
		}
	}
}

func TestParsersCoverSupportedExtensions(t *testing.T) {
	parsers := Parsers()
	for _, ext := range []string{".csv", ".xlsx", ".json"} {
		if _, ok := parsers[ext]; !ok {
			t.Fatalf("missing parser for %s", ext)
		}
	}
}
