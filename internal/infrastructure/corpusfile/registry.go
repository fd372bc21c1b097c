package corpusfile

import "github.com/kirillkom/counsel-assistant/internal/core/ports"

// Parsers returns the parser set keyed by lower-case extension.
func Parsers() map[string]ports.CorpusFileParser {
	return map[string]ports.CorpusFileParser{
		".csv":  CSVParser{},
		".xlsx": XLSXParser{},
		".json": JSONParser{},
	}
}
