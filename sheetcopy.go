package docforge

import (
	"strconv"

	"github.com/xuri/excelize/v2"
)

// CopySheetTo — глубокая копия листа srcSheet книги src в книгу dst под
// именем dstName: значения, формулы, материализованные стили, ширины
// колонок, высоты строк и объединённые диапазоны. Идентификаторы стилей
// действуют только внутри своей книги, поэтому стили переносятся через
// GetStyle -> NewStyle с кэшем соответствий.
func CopySheetTo(src *excelize.File, srcSheet string, dst *excelize.File, dstName string) error {
	if _, err := dst.NewSheet(dstName); err != nil {
		return err
	}
	rows, err := src.GetRows(srcSheet)
	if err != nil {
		return err
	}
	maxCol := 0
	for _, r := range rows {
		if len(r) > maxCol {
			maxCol = len(r)
		}
	}
	styleCache := map[int]int{}
	for rIdx := range rows {
		row := rIdx + 1
		for col := 1; col <= maxCol; col++ {
			addr, _ := excelize.CoordinatesToCellName(col, row)
			if err := copyCell(src, srcSheet, dst, dstName, addr, styleCache); err != nil {
				return err
			}
		}
		if h, err := src.GetRowHeight(srcSheet, row); err == nil && h > 0 {
			if err := dst.SetRowHeight(dstName, row, h); err != nil {
				return err
			}
		}
	}
	for col := 1; col <= maxCol; col++ {
		name, _ := excelize.ColumnNumberToName(col)
		if w, err := src.GetColWidth(srcSheet, name); err == nil && w > 0 {
			if err := dst.SetColWidth(dstName, name, name, w); err != nil {
				return err
			}
		}
	}
	merges, err := src.GetMergeCells(srcSheet)
	if err != nil {
		return err
	}
	for _, m := range merges {
		if err := dst.MergeCell(dstName, m.GetStartAxis(), m.GetEndAxis()); err != nil {
			return err
		}
	}
	return nil
}

func copyCell(src *excelize.File, srcSheet string, dst *excelize.File, dstName, addr string, styleCache map[int]int) error {
	if formula, err := src.GetCellFormula(srcSheet, addr); err == nil && formula != "" {
		if err := dst.SetCellFormula(dstName, addr, formula); err != nil {
			return err
		}
	} else if v, err := src.GetCellValue(srcSheet, addr); err == nil && v != "" {
		ct, _ := src.GetCellType(srcSheet, addr)
		numeric := ct == excelize.CellTypeNumber || ct == excelize.CellTypeUnset
		if f, perr := strconv.ParseFloat(v, 64); numeric && perr == nil {
			if err := dst.SetCellValue(dstName, addr, f); err != nil {
				return err
			}
		} else if err := dst.SetCellValue(dstName, addr, v); err != nil {
			return err
		}
	}
	sid, err := src.GetCellStyle(srcSheet, addr)
	if err != nil || sid == 0 {
		return nil
	}
	dstSID, ok := styleCache[sid]
	if !ok {
		st, err := src.GetStyle(sid)
		if err != nil || st == nil {
			return nil
		}
		dstSID, err = dst.NewStyle(st)
		if err != nil {
			return nil
		}
		styleCache[sid] = dstSID
	}
	return dst.SetCellStyle(dstName, addr, addr, dstSID)
}
