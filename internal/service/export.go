package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/shaiso/Flowsheet/internal/engine"
	"github.com/shaiso/Flowsheet/internal/table"
)

// ErrNoOutputs — в документе не объявлено ни одного выходного файла.
var ErrNoOutputs = errors.New("flow declares no outputs")

// ExportResult — собранный экспорт.
type ExportResult struct {
	// Filename — имя отдаваемого файла (.xlsx или .zip).
	Filename string

	// ContentType — MIME-тип содержимого.
	ContentType string

	// Content — байты файла.
	Content []byte
}

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	zipContentType  = "application/zip"
)

// Export выполняет flow и собирает объявленные выходные файлы.
// Один выходной файл отдаётся как xlsx, несколько — zip-архивом.
func (p *Previewer) Export(ctx context.Context, userID int64, fileIDs []int64, doc map[string]any) (*ExportResult, error) {
	outputs := collectOutputFiles(doc)
	if len(outputs) == 0 {
		return nil, ErrNoOutputs
	}

	paths, _, err := p.resolveFiles(ctx, userID, fileIDs)
	if err != nil {
		return nil, err
	}

	result, err := p.execute(ctx, paths, doc)
	if err != nil {
		return nil, err
	}

	books := make([]workbook, 0, len(outputs))
	for _, out := range outputs {
		content, err := buildWorkbook(out, result)
		if err != nil {
			return nil, err
		}
		books = append(books, workbook{name: out.fileName, content: content})
	}

	if len(books) == 1 {
		return &ExportResult{
			Filename:    books[0].name,
			ContentType: xlsxContentType,
			Content:     books[0].content,
		}, nil
	}

	archive, err := zipWorkbooks(books)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    "export.zip",
		ContentType: zipContentType,
		Content:     archive,
	}, nil
}

// outputFile — один выходной файл: имя и листы.
type outputFile struct {
	fileName string
	sheets   []engine.OutputSheet
}

type workbook struct {
	name    string
	content []byte
}

// collectOutputFiles группирует листы output-узлов по выходным файлам,
// сохраняя порядок появления в документе.
func collectOutputFiles(doc map[string]any) []outputFile {
	parsed := engine.ParseDocument(doc)

	var files []outputFile
	index := make(map[string]int)
	for i := range parsed.Nodes {
		for _, sheet := range parsed.Nodes[i].OutputSheets {
			name := sheet.FileName
			if name == "" {
				name = "output.xlsx"
			}
			j, ok := index[name]
			if !ok {
				j = len(files)
				index[name] = j
				files = append(files, outputFile{fileName: name})
			}
			files[j].sheets = append(files[j].sheets, sheet)
		}
	}
	return files
}

// buildWorkbook собирает xlsx: каждому листу — таблица его источника.
// Источник, в который ничего не записано, даёт пустой лист.
func buildWorkbook(out outputFile, result *engine.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range out.sheets {
		name := sheet.SheetName
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}

		if i == 0 {
			// excelize создаёт книгу с одним листом — переименовываем
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", name, err)
		}

		tbl := result.Tables[sheet.Source.Key()]
		if tbl == nil {
			tbl = table.Empty()
		}
		if err := writeSheet(f, name, tbl); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook %q: %w", out.fileName, err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, tbl *table.Table) error {
	header := make([]any, len(tbl.Columns))
	for i, col := range tbl.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header of %q: %w", sheet, err)
	}

	for i, row := range tbl.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		rowCopy := append([]any(nil), row...)
		if err := f.SetSheetRow(sheet, cell, &rowCopy); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+1, sheet, err)
		}
	}
	return nil
}

func zipWorkbooks(books []workbook) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, b := range books {
		w, err := zw.Create(b.name)
		if err != nil {
			return nil, fmt.Errorf("zip entry %q: %w", b.name, err)
		}
		if _, err := w.Write(b.content); err != nil {
			return nil, fmt.Errorf("zip write %q: %w", b.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
