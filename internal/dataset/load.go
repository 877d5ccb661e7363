package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads a CSV or spreadsheet file, chosen by extension.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	d, err := Decode(filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Decode parses r as a spreadsheet when name ends in .xlsx/.xlsm and as CSV otherwise.
func Decode(name string, r io.Reader) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(r)
	default:
		return LoadCSV(r)
	}
}

// LoadCSV parses delimited text with a header row.
func LoadCSV(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return build(nil, nil, parseTimeCell)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv rows: %w", err)
	}
	return build(header, rows, parseTimeCell)
}

// LoadXLSX parses the first sheet of a workbook. Time cells may be Excel
// serial dates or text in the CSV layout.
func LoadXLSX(r io.Reader) (*Dataset, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return build(nil, nil, parseSheetTime)
	}
	rows, err := book.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return build(nil, nil, parseSheetTime)
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(cell)
	}
	return build(header, rows[1:], parseSheetTime)
}

var sheetTimeLayouts = []string{
	TimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	ISOLayout,
}

func parseSheetTime(cell string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(cell, 64); err == nil {
		ts, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return ts.Round(time.Second), nil
	}
	for _, layout := range sheetTimeLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", cell)
}
