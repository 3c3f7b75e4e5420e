// internal/export/export.go

// Package export renders a finished run as JSON, CSV, or an Excel workbook.
// Export runs after the result is already complete; an export failure is
// reported but never rewrites the run outcome.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
	"github.com/anuj123upadhyay/pagedriver/internal/config"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// maxOutputRunes caps per-cell output in tabular exports. The full value
// stays available in the JSON result.
const maxOutputRunes = 500

// Tabular exports share one fixed column layout.
var columns = []string{"type", "selector", "success", "execution_time_ms", "timestamp", "error", "output"}

// Artifact file names per format.
const (
	jsonArtifact  = "OUTPUT.json"
	csvArtifact   = "OUTPUT_CSV.csv"
	excelArtifact = "OUTPUT_EXCEL.xlsx"
)

// Exporter writes run results to the configured output directory.
type Exporter struct {
	cfg    config.ExportConfig
	logger *zap.Logger
}

func NewExporter(cfg config.ExportConfig, logger *zap.Logger) *Exporter {
	return &Exporter{cfg: cfg, logger: logger.Named("export")}
}

// Write renders the result in the configured format and returns the artifact
// path. The JSON result is always the source of truth; CSV and Excel are
// flattened projections of the per-action records.
func (e *Exporter) Write(result *schemas.RunResult) (string, error) {
	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var path string
	var err error
	switch e.cfg.Format {
	case config.FormatCSV:
		path = filepath.Join(e.cfg.OutputDir, csvArtifact)
		err = e.writeCSV(path, result)
	case config.FormatExcel:
		path = filepath.Join(e.cfg.OutputDir, excelArtifact)
		err = e.writeExcel(path, result)
	case config.FormatJSON, "":
		path = filepath.Join(e.cfg.OutputDir, jsonArtifact)
		err = e.writeJSON(path, result)
	default:
		return "", fmt.Errorf("unknown export format: %q", e.cfg.Format)
	}
	if err != nil {
		return "", err
	}

	e.logger.Info("Run result exported.",
		zap.String("format", e.cfg.Format),
		zap.String("path", path),
		zap.Int("actions", len(result.Actions)),
	)
	return path, nil
}

// writeJSON serializes the complete result, nested output values included.
func (e *Exporter) writeJSON(path string, result *schemas.RunResult) error {
	data, err := jsonAPI.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize run result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON export: %w", err)
	}
	return nil
}

func (e *Exporter) writeCSV(path string, result *schemas.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range result.Actions {
		if err := w.Write(flatten(&result.Actions[i])); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV export: %w", err)
	}
	return f.Close()
}

func (e *Exporter) writeExcel(path string, result *schemas.RunResult) error {
	book := excelize.NewFile()
	defer book.Close()

	const sheet = "Data"
	index, err := book.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create worksheet: %w", err)
	}
	book.SetActiveSheet(index)
	if err := book.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default worksheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write worksheet header: %w", err)
	}

	for i := range result.Actions {
		row := flatten(&result.Actions[i])
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address worksheet row: %w", err)
		}
		if err := book.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write worksheet row: %w", err)
		}
	}

	if err := book.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write Excel export: %w", err)
	}
	return nil
}

// flatten projects one record onto the fixed column layout.
func flatten(r *schemas.ActionResult) []string {
	return []string{
		string(r.Kind),
		r.Selector,
		strconv.FormatBool(r.Success),
		strconv.FormatFloat(r.ExecutionTimeMs, 'f', -1, 64),
		r.Timestamp,
		r.Error,
		truncate(stringify(r.Output), maxOutputRunes),
	}
}

// stringify renders an output value for a flat cell. Structured values
// serialize as compact JSON.
func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := jsonAPI.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
