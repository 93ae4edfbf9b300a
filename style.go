package docforge

import (
	"github.com/xuri/excelize/v2"
)

// Бухгалтерия стилей и объединённых диапазонов при вставке строк.
// Идентификаторы стилей excelize — записи неизменяемой таблицы стилей книги,
// поэтому раздача одного id нескольким ячейкам безопасна; любое изменение
// стиля идёт через GetStyle -> NewStyle (копия при записи).

// rowTemplate — слепок шаблонной строки: стили и исходные значения по
// колонкам плюс высота.
type rowTemplate struct {
	styles    map[int]int
	values    map[int]string
	height    float64
	hasHeight bool
	maxCol    int
}

func captureRowTemplate(f *excelize.File, sheet string, row, maxCol int) rowTemplate {
	rt := rowTemplate{styles: map[int]int{}, values: map[int]string{}, maxCol: maxCol}
	for col := 1; col <= maxCol; col++ {
		addr, _ := excelize.CoordinatesToCellName(col, row)
		if v, err := f.GetCellValue(sheet, addr); err == nil && v != "" {
			rt.values[col] = v
		}
		if sid, err := f.GetCellStyle(sheet, addr); err == nil && sid != 0 {
			rt.styles[col] = sid
		}
	}
	if h, err := f.GetRowHeight(sheet, row); err == nil && h > 0 {
		rt.height = h
		rt.hasHeight = true
	}
	return rt
}

// applyRowTemplate переносит слепок на строку dst. При copyValues исходные
// значения (включая плейсхолдеры) копируются, иначе ячейки остаются пустыми.
func applyRowTemplate(f *excelize.File, sheet string, dst int, rt rowTemplate, copyValues bool) error {
	for col := 1; col <= rt.maxCol; col++ {
		addr, _ := excelize.CoordinatesToCellName(col, dst)
		if sid, ok := rt.styles[col]; ok {
			if err := f.SetCellStyle(sheet, addr, addr, sid); err != nil {
				return err
			}
		}
		if copyValues {
			if v, ok := rt.values[col]; ok {
				if err := f.SetCellValue(sheet, addr, v); err != nil {
					return err
				}
			}
		}
	}
	if rt.hasHeight {
		if err := f.SetRowHeight(sheet, dst, rt.height); err != nil {
			return err
		}
	}
	return nil
}

// mergeRange — явный диапазон объединённых ячеек. Диапазоны не пересекаются;
// после сдвига пролёт (maxRow-minRow) сохраняется.
type mergeRange struct {
	minRow, maxRow int
	minCol, maxCol int
}

func (m mergeRange) axis() (string, string) {
	start, _ := excelize.CoordinatesToCellName(m.minCol, m.minRow)
	end, _ := excelize.CoordinatesToCellName(m.maxCol, m.maxRow)
	return start, end
}

// mergesBelow возвращает диапазоны, верхняя граница которых лежит строго
// ниже строки pivot.
func mergesBelow(f *excelize.File, sheet string, pivot int) ([]mergeRange, error) {
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, err
	}
	var out []mergeRange
	for _, m := range merges {
		sc, sr, err := excelize.SplitCellName(m.GetStartAxis())
		if err != nil {
			continue
		}
		ec, er, err := excelize.SplitCellName(m.GetEndAxis())
		if err != nil {
			continue
		}
		if sr <= pivot {
			continue
		}
		scn, _ := excelize.ColumnNameToNumber(sc)
		ecn, _ := excelize.ColumnNameToNumber(ec)
		out = append(out, mergeRange{minRow: sr, maxRow: er, minCol: scn, maxCol: ecn})
	}
	return out, nil
}

func unmergeRanges(f *excelize.File, sheet string, ranges []mergeRange) error {
	for _, m := range ranges {
		start, end := m.axis()
		if err := f.UnmergeCell(sheet, start, end); err != nil {
			return err
		}
	}
	return nil
}

// remergeRanges восстанавливает снятые диапазоны со сдвигом строк на delta.
// При delta == 0 диапазоны возвращаются на прежние места.
func remergeRanges(f *excelize.File, sheet string, ranges []mergeRange, delta int) error {
	for _, m := range ranges {
		shifted := mergeRange{
			minRow: m.minRow + delta,
			maxRow: m.maxRow + delta,
			minCol: m.minCol,
			maxCol: m.maxCol,
		}
		start, end := shifted.axis()
		if err := f.MergeCell(sheet, start, end); err != nil {
			return err
		}
	}
	return nil
}

func sheetMaxCol(f *excelize.File, sheet string) int {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0
	}
	max := 0
	for _, r := range rows {
		if len(r) > max {
			max = len(r)
		}
	}
	return max
}

// SetCellNumberFormat меняет числовой формат ячейки, сохраняя остальные
// атрибуты её стиля.
func (t *Template) SetCellNumberFormat(sheet, cell, numFmt string) error {
	sid, err := t.f.GetCellStyle(sheet, cell)
	if err != nil {
		return err
	}
	st := &excelize.Style{}
	if sid != 0 {
		if got, err := t.f.GetStyle(sid); err == nil && got != nil {
			st = got
		}
	}
	st.CustomNumFmt = &numFmt
	nsid, err := t.f.NewStyle(st)
	if err != nil {
		return err
	}
	return t.f.SetCellStyle(sheet, cell, cell, nsid)
}

// MergeEqualCells объединяет подряд идущие ячейки колонки col с одинаковым
// текстом в диапазоне строк [firstRow, lastRow]; ведущая ячейка блока
// получает выравнивание по левому краю с переносом.
func (t *Template) MergeEqualCells(sheet string, col, firstRow, lastRow int) error {
	if lastRow <= firstRow {
		return nil
	}
	addrAt := func(row int) string {
		addr, _ := excelize.CoordinatesToCellName(col, row)
		return addr
	}
	blockStart := firstRow
	current, _ := t.f.GetCellValue(sheet, addrAt(firstRow))
	closeBlock := func(end int) error {
		if end <= blockStart {
			return nil
		}
		if err := t.f.MergeCell(sheet, addrAt(blockStart), addrAt(end)); err != nil {
			return err
		}
		return t.setBlockAlignment(sheet, addrAt(blockStart))
	}
	for row := firstRow + 1; row <= lastRow; row++ {
		v, _ := t.f.GetCellValue(sheet, addrAt(row))
		if v != current {
			if err := closeBlock(row - 1); err != nil {
				return err
			}
			blockStart = row
			current = v
		}
	}
	return closeBlock(lastRow)
}

func (t *Template) setBlockAlignment(sheet, cell string) error {
	sid, err := t.f.GetCellStyle(sheet, cell)
	if err != nil {
		return err
	}
	st := &excelize.Style{}
	if sid != 0 {
		if got, err := t.f.GetStyle(sid); err == nil && got != nil {
			st = got
		}
	}
	st.Alignment = &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true}
	nsid, err := t.f.NewStyle(st)
	if err != nil {
		return err
	}
	return t.f.SetCellStyle(sheet, cell, cell, nsid)
}
