package scoring

import (
	"testing"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/tables"
)

func testConfig(t *testing.T) domain.RetrievalConfig {
	t.Helper()
	tbl, err := tables.Default()
	if err != nil {
		t.Fatalf("tables.Default() error = %v", err)
	}
	cfg := domain.DefaultRetrievalConfig()
	cfg.Tables = tbl
	return cfg
}

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	return NewNormalizer(testConfig(t).Tables.Contractions)
}
