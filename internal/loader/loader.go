package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/shaiso/Flowsheet/internal/table"
)

// ErrUnsupportedFormat — расширение файла не распознано.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// FileLoader читает CSV- и XLSX-файлы в таблицы.
type FileLoader struct{}

// New создаёт загрузчик.
func New() *FileLoader {
	return &FileLoader{}
}

// Parse читает файл в таблицу. Для XLSX пустое имя листа означает
// первый лист книги; для CSV имя листа игнорируется.
func (l *FileLoader) Parse(path, sheet string) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return l.parseCSV(path)
	case ".xlsx", ".xlsm":
		return l.parseXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ListSheets возвращает имена листов книги.
// Для CSV список пуст: у файла нет именованных листов.
func (l *FileLoader) ListSheets(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return nil, nil
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", path, err)
		}
		defer f.Close()
		return f.GetSheetList(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (l *FileLoader) parseCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // рваные строки добиваются ниже

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return fromRecords(records), nil
}

func (l *FileLoader) parseXLSX(path, sheet string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return table.Empty(), nil
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}
	return fromRecords(records), nil
}

// fromRecords строит таблицу: первая строка — заголовок,
// остальные — данные. Короткие строки добиваются пустыми ячейками.
func fromRecords(records [][]string) *table.Table {
	if len(records) == 0 {
		return table.Empty()
	}

	header := records[0]
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		columns[i] = name
	}

	t := table.New(columns...)
	for _, rec := range records[1:] {
		row := make([]any, len(columns))
		for i := range columns {
			if i < len(rec) {
				row[i] = coerceCell(rec[i])
			}
		}
		t.AppendRow(row)
	}
	return t
}

// coerceCell приводит текст ячейки к числу или логическому
// значению, где это возможно. Пустой текст становится nil.
func coerceCell(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return n
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
