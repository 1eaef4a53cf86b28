// internal/pipeline/record-extractor/extractor.go
package recordextractor

import (
	"strings"
	"unicode"

	apperrors "ksel-bot/internal/common/errors"
	"ksel-bot/internal/common/logger"
	"ksel-bot/internal/common/metrics"
	"ksel-bot/internal/models"
)

const Component = "record-extractor"

// Extractor turns raw registry rows into records. It is stateless apart
// from its configuration.
type Extractor struct {
	config *Config
	logger logger.Logger
}

func NewExtractor(config *Config, log logger.Logger) *Extractor {
	return &Extractor{
		config: config,
		logger: logger.ForComponent(log, Component),
	}
}

// Extract maps up to MaxRows rows to records in input order. Rows shorter
// than the layout's MinCells are skipped without affecting the others.
func (e *Extractor) Extract(table models.RawTable) []models.Record {
	rows := table.Rows
	if e.config.MaxRows > 0 && len(rows) > e.config.MaxRows {
		rows = rows[:e.config.MaxRows]
	}

	l := e.config.Layout
	records := make([]models.Record, 0, len(rows))
	for i, row := range rows {
		if len(row) < l.MinCells {
			skipped := apperrors.NewRowParseSkippedError(i, len(row), l.MinCells)
			e.logger.Debug("row skipped", map[string]interface{}{
				"errorCode": string(skipped.Code),
				"details":   skipped.Details,
			})
			metrics.RowsSkipped.Inc()
			continue
		}

		dates := dateTokens(l.Cell(row, l.Dates))
		rec := models.Record{
			CertificateID:    firstToken(l.Cell(row, l.CertificateID)),
			DeviceIdentifier: l.Cell(row, l.DeviceIdentifier),
			ModelName:        l.Cell(row, l.ModelName),
			ModelVersion:     l.Cell(row, l.ModelVersion),
		}
		if len(dates) > 0 {
			rec.CertifiedDate = dates[0]
		}
		if l.Expiry >= 0 && l.Expiry < len(row) {
			rec.ExpiryDate = firstToken(l.Cell(row, l.Expiry))
		} else if len(dates) > 1 {
			rec.ExpiryDate = dates[1]
		}
		records = append(records, rec)
	}
	return records
}

// Select applies the configured mode. In exact mode only the first record
// whose model name equals key verbatim is kept.
func (e *Extractor) Select(records []models.Record, key string) []models.Record {
	if e.config.Mode != ModeExact {
		return records
	}
	for _, r := range records {
		if r.ModelName == key {
			return []models.Record{r}
		}
	}
	return nil
}

// Render formats records as chat text, one block per record separated by a
// blank line.
func (e *Extractor) Render(records []models.Record) string {
	blocks := make([]string, len(records))
	for i, r := range records {
		blocks[i] = RenderRecord(r)
	}
	return strings.Join(blocks, "\n\n")
}

func RenderRecord(r models.Record) string {
	model := r.ModelName
	if r.ModelVersion != "" {
		model += " (" + r.ModelVersion + ")"
	}
	var b strings.Builder
	b.WriteString("[" + r.CertificateID + "]\n")
	b.WriteString(model + "\n")
	b.WriteString(r.DeviceIdentifier + "\n")
	b.WriteString("인증일자 : " + r.CertifiedDate + "\n")
	b.WriteString("만료일자 : " + r.ExpiryDate)
	return b.String()
}

func firstToken(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

// dateTokens splits a date cell on whitespace and drops separators such
// as "~" that carry no digit.
func dateTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(s) {
		if strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
			out = append(out, tok)
		}
	}
	return out
}
