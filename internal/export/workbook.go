// Package export writes a collected inventory out as an xlsx workbook.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/yairfalse/awsinventory/pkg/inventory"
)

const (
	defaultSheet = "Sheet1"
	columnWidth  = 22
)

// WorkbookWriter writes one workbook per inventory, one sheet per record family.
type WorkbookWriter struct {
	path string
}

// NewWorkbookWriter creates a writer for the workbook at path.
func NewWorkbookWriter(path string) *WorkbookWriter {
	return &WorkbookWriter{path: path}
}

// Path returns the destination of the workbook.
func (w *WorkbookWriter) Path() string {
	return w.path
}

// Write builds the workbook and saves it at the writer's path.
// The file is written next to its destination and renamed into place,
// so a failed write leaves any previous report untouched.
func (w *WorkbookWriter) Write(inv *inventory.Inventory) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, table := range inv.Tables() {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, table.Sheet); err != nil {
				return fmt.Errorf("rename default sheet: %w", err)
			}
		} else if _, err := f.NewSheet(table.Sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", table.Sheet, err)
		}

		if err := writeTable(f, table, header); err != nil {
			return fmt.Errorf("write sheet %s: %w", table.Sheet, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SetDocProps(docProps(inv)); err != nil {
		return fmt.Errorf("set document properties: %w", err)
	}

	if err := w.save(f); err != nil {
		return err
	}

	log.Info().Str("path", w.path).Str("run_id", inv.RunID).Msg("workbook written")
	return nil
}

func writeTable(f *excelize.File, table inventory.Table, header int) error {
	sheet := table.Sheet
	columns := table.Columns

	if err := f.SetSheetRow(sheet, "A1", &columns); err != nil {
		return err
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	lastHeader := lastCol + "1"

	if err := f.SetCellStyle(sheet, "A1", lastHeader, header); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, columnWidth); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	lastCell, err := excelize.CoordinatesToCellName(len(columns), len(table.Rows)+1)
	if err != nil {
		return err
	}
	return f.AutoFilter(sheet, "A1:"+lastCell, nil)
}

// docProps only carries fields derived from the collected data.
// The run id and timestamps stay out so an unchanged account yields the same bytes.
func docProps(inv *inventory.Inventory) *excelize.DocProperties {
	return &excelize.DocProperties{
		Title:       "AWS inventory",
		Subject:     "account " + inv.AccountID,
		Creator:     "awsinventory",
		Description: fmt.Sprintf("%d regions collected", len(inv.Regions)),
	}
}

func (w *WorkbookWriter) save(f *excelize.File) error {
	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".awsinventory-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() { _ = os.Remove(tmpName) }

	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close workbook: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { // #nosec G302 -- report is meant to be shared
		cleanup()
		return fmt.Errorf("chmod workbook: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		cleanup()
		return fmt.Errorf("move workbook into place: %w", err)
	}
	return nil
}
