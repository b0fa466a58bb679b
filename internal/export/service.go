// Package export writes merged product tables and their statistics to disk
// as CSV, JSON, XLSX, a statistics dump and a markdown report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/harvestlab/ecomharvest/internal/domain"
)

// Logger is the logging sink injected into the export layer.
type Logger interface {
	Printf(format string, v ...any)
}

const (
	fileTimestamp = "20060102_150405"
	sheetName     = "Products"
)

// utf8BOM makes spreadsheet tools detect CSV encoding correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Service writes export artifacts into a fixed output directory.
type Service struct {
	outDir string
	logger Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds an export service rooted at dir. The directory is
// created on first write, not here.
func NewService(dir string, logger Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Default()
	}
	service := &Service{
		outDir: filepath.Clean(dir),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// WriteCSV writes the table as a UTF-8 CSV with a BOM and returns the file
// path.
func (s *Service) WriteCSV(table *domain.Table, name string) (string, error) {
	path, err := s.preparePath(name, "csv")
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return "", fmt.Errorf("write BOM to %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	columns := table.Columns()
	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("write header to %s: %w", path, err)
	}
	record := make([]string, len(columns))
	for i := 0; i < table.Len(); i++ {
		for j, column := range columns {
			value, _ := table.Value(i, column)
			record[j] = formatValue(value)
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write row %d to %s: %w", i, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}

	s.logger.Printf("[export] wrote %d rows to %s", table.Len(), path)
	return path, nil
}

// WriteJSON writes the table as an indented JSON array of row objects and
// returns the file path.
func (s *Service) WriteJSON(table *domain.Table, name string) (string, error) {
	path, err := s.preparePath(name, "json")
	if err != nil {
		return "", err
	}

	rows := make([]domain.Row, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		rows = append(rows, table.Row(i))
	}
	if err := writeJSONFile(path, rows); err != nil {
		return "", err
	}

	s.logger.Printf("[export] wrote %d rows to %s", table.Len(), path)
	return path, nil
}

// WriteXLSX writes the table as a single-sheet workbook and returns the
// file path.
func (s *Service) WriteXLSX(table *domain.Table, name string) (string, error) {
	path, err := s.preparePath(name, "xlsx")
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}

	columns := table.Columns()
	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = column
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	row := make([]any, len(columns))
	for i := 0; i < table.Len(); i++ {
		for j, column := range columns {
			value, _ := table.Value(i, column)
			row[j] = cellValue(value)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", fmt.Errorf("cell for row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return "", fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	s.logger.Printf("[export] wrote %d rows to %s", table.Len(), path)
	return path, nil
}

// WriteStatistics writes the statistics block as indented JSON and returns
// the file path.
func (s *Service) WriteStatistics(stats domain.Statistics, name string) (string, error) {
	path, err := s.preparePath(name, "json")
	if err != nil {
		return "", err
	}
	if err := writeJSONFile(path, stats); err != nil {
		return "", err
	}
	s.logger.Printf("[export] wrote statistics to %s", path)
	return path, nil
}

// Timestamp returns the shared timestamp token used in export filenames, so
// one pipeline run produces a consistently named artifact set.
func (s *Service) Timestamp() string {
	return s.now().Format(fileTimestamp)
}

// preparePath ensures the output directory exists and returns the full path
// for name.ext.
func (s *Service) preparePath(name, ext string) (string, error) {
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", s.outDir, err)
	}
	if !strings.HasSuffix(name, "."+ext) {
		name = name + "." + ext
	}
	return filepath.Join(s.outDir, name), nil
}

func writeJSONFile(path string, payload any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// formatValue renders a cell for CSV output.
func formatValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case json.Number:
		return v.String()
	case float32, float64, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%v", v)
	case []byte:
		return string(v)
	case map[string]any, []any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// cellValue keeps scalar types native for the spreadsheet and flattens
// everything else to the CSV rendering.
func cellValue(value any) any {
	switch value.(type) {
	case nil:
		return ""
	case string, bool, float32, float64, int, int32, int64, uint, uint32, uint64:
		return value
	default:
		return formatValue(value)
	}
}
