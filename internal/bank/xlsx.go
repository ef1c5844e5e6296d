package bank

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first sheet of a spreadsheet bank file into the same
// header-plus-rows shape readCSV produces. Some source banks circulate as
// Excel workbooks rather than CSV exports.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s sheet %s: %w", filepath.Base(path), sheets[0], err)
	}
	return rows, nil
}
