package recordextractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ksel-bot/internal/common/config"
	"ksel-bot/internal/common/logger"
	"ksel-bot/internal/models"
	"ksel-bot/pkg/layout"
)

func newTestExtractor(t *testing.T, mode, layoutName string) *Extractor {
	l, err := layout.Get(layoutName)
	require.NoError(t, err)
	return NewExtractor(&Config{Mode: mode, MaxRows: 10, Layout: l}, logger.NewTestLogger(t))
}

func pairedRow(cert, ident, model, version, dates string) models.RawRecord {
	return models.RawRecord{"1", cert, ident, model, version, dates}
}

func TestExtractor_SingleRowRendering(t *testing.T) {
	e := newTestExtractor(t, ModeAll, layout.PairedDates)
	table := models.RawTable{Rows: []models.RawRecord{
		pairedRow("A-2021-001", "#ID-77", "KTC-K501", "1.0", "2021-01-04 2026-01-03"),
	}}

	records := e.Select(e.Extract(table), "KTC-K501")
	require.Len(t, records, 1)

	want := "[A-2021-001]\nKTC-K501 (1.0)\n#ID-77\n인증일자 : 2021-01-04\n만료일자 : 2026-01-03"
	assert.Equal(t, want, e.Render(records))
}

func TestExtractor_SkipsShortRows(t *testing.T) {
	e := newTestExtractor(t, ModeAll, layout.PairedDates)
	table := models.RawTable{Rows: []models.RawRecord{
		pairedRow("A-1", "I1", "M1", "", "2020-01-01 2025-01-01"),
		{"only", "three", "cells"},
		pairedRow("A-2", "I2", "M2", "", "2020-02-02"),
	}}

	records := e.Extract(table)
	require.Len(t, records, 2)
	assert.Equal(t, "A-1", records[0].CertificateID)
	assert.Equal(t, "A-2", records[1].CertificateID)
	assert.Equal(t, "", records[1].ExpiryDate, "missing expiry token yields empty text")
}

func TestExtractor_MaxRows(t *testing.T) {
	e := newTestExtractor(t, ModeAll, layout.PairedDates)
	var rows []models.RawRecord
	for i := 0; i < 15; i++ {
		rows = append(rows, pairedRow("C", "I", "M", "V", "2020-01-01 2025-01-01"))
	}
	assert.Len(t, e.Extract(models.RawTable{Rows: rows}), 10)
}

func TestExtractor_ExactModeSharedPrefix(t *testing.T) {
	e := newTestExtractor(t, ModeExact, layout.PairedDates)
	table := models.RawTable{Rows: []models.RawRecord{
		pairedRow("A-1", "I1", "KTC-K501P", "", "2020-01-01 2025-01-01"),
		pairedRow("A-2", "I2", "KTC-K501", "", "2020-01-01 2025-01-01"),
		pairedRow("A-3", "I3", "KTC-K501", "", "2020-01-01 2025-01-01"),
	}}

	records := e.Select(e.Extract(table), "KTC-K501")
	require.Len(t, records, 1)
	assert.Equal(t, "A-2", records[0].CertificateID)

	assert.Empty(t, e.Select(e.Extract(table), "ktc-k501"), "matching is case-sensitive")
}

func TestExtractor_AllModeKeepsOrder(t *testing.T) {
	e := newTestExtractor(t, ModeAll, layout.PairedDates)
	table := models.RawTable{Rows: []models.RawRecord{
		pairedRow("B", "I", "X", "", "2020"),
		pairedRow("A", "I", "X", "", "2020"),
		pairedRow("A", "I", "X", "", "2020"),
	}}

	records := e.Select(e.Extract(table), "anything")
	require.Len(t, records, 3)
	assert.Equal(t, []string{"B", "A", "A"}, []string{records[0].CertificateID, records[1].CertificateID, records[2].CertificateID})
}

func TestExtractor_SplitDatesLayout(t *testing.T) {
	e := newTestExtractor(t, ModeAll, layout.SplitDates)
	table := models.RawTable{Rows: []models.RawRecord{
		{"1", "A-9", "#ID", "KTC-K501", "3.2", "2022-03-01", "2027-02-28", "etc"},
		{"2", "A-10", "#ID", "KTC-K501", "3.2", "2022-03-01", "2027-02-28"},
	}}

	records := e.Extract(table)
	require.Len(t, records, 1, "split layout needs eight cells")
	assert.Equal(t, "2022-03-01", records[0].CertifiedDate)
	assert.Equal(t, "2027-02-28", records[0].ExpiryDate)
}

func TestExtractor_FieldTokens(t *testing.T) {
	e := newTestExtractor(t, ModeAll, layout.PairedDates)
	table := models.RawTable{Rows: []models.RawRecord{
		pairedRow(" A-1 (갱신) ", " #ID 77 ", " KTC K501 ", " 1.0 ", "2021-01-04 ~ 2026-01-03"),
	}}

	records := e.Extract(table)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "A-1", r.CertificateID)
	assert.Equal(t, "#ID 77", r.DeviceIdentifier)
	assert.Equal(t, "KTC K501", r.ModelName)
	assert.Equal(t, "2021-01-04", r.CertifiedDate)
	assert.Equal(t, "2026-01-03", r.ExpiryDate)
}

func TestRender(t *testing.T) {
	e := newTestExtractor(t, ModeAll, layout.PairedDates)

	assert.Equal(t, "", e.Render(nil))

	out := e.Render([]models.Record{
		{CertificateID: "A", ModelName: "M", DeviceIdentifier: "I", CertifiedDate: "d1", ExpiryDate: "d2"},
		{CertificateID: "B", ModelName: "N", ModelVersion: "2", DeviceIdentifier: "J", CertifiedDate: "d3"},
	})
	assert.Equal(t, "[A]\nM\nI\n인증일자 : d1\n만료일자 : d2\n\n[B]\nN (2)\nJ\n인증일자 : d3\n만료일자 : ", out)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(config.ExtractorConfig{Layout: layout.SplitDates})
	require.NoError(t, err)
	assert.Equal(t, ModeAll, cfg.Mode)
	assert.Equal(t, 10, cfg.MaxRows)
	assert.Equal(t, 8, cfg.Layout.MinCells)

	path := filepath.Join(t.TempDir(), "layouts.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"layouts":[{"name":"custom","minCells":3,"certificateId":0,"deviceIdentifier":-1,"modelName":1,"modelVersion":-1,"dates":2,"expiry":-1}]}`), 0o600))
	cfg, err = LoadConfig(config.ExtractorConfig{Mode: ModeExact, MaxRows: 3, Layout: "custom", LayoutFile: path})
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Layout.Name)

	_, err = LoadConfig(config.ExtractorConfig{Layout: "missing"})
	assert.Error(t, err)
}
