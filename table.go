package docforge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrMarkerNotFound — в шаблоне нет строки с ожидаемым табличным маркером.
	// Для документа это фатально: без маркера негде разворачивать таблицу.
	ErrMarkerNotFound = errors.New("маркер таблицы не найден")
	// ErrTotalRowNotFound — под таблицей нет строки-якоря итогов; формулы
	// ниже ссылались бы на неправильный диапазон.
	ErrTotalRowNotFound = errors.New("строка итогов не найдена")
)

// FindCell возвращает адрес первой ячейки листа, содержащей подстроку needle.
func (t *Template) FindCell(sheet, needle string) (string, bool, error) {
	rows, err := t.f.GetRows(sheet)
	if err != nil {
		return "", false, err
	}
	for rIdx, row := range rows {
		for cIdx, cell := range row {
			if strings.Contains(cell, needle) {
				addr, _ := excelize.CoordinatesToCellName(cIdx+1, rIdx+1)
				return addr, true, nil
			}
		}
	}
	return "", false, nil
}

func (t *Template) findMarkerRow(sheet, tag string) (int, error) {
	rows, err := t.f.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	for rIdx, row := range rows {
		for _, cell := range row {
			if strings.Contains(cell, tag) {
				return rIdx + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %s (лист %s)", ErrMarkerNotFound, tag, sheet)
}

// expandAt — общая механика разворота: слепок шаблонной строки, снятие
// диапазонов ниже неё, вставка add строк, перенос слепка, восстановление
// диапазонов со сдвигом на add.
func (t *Template) expandAt(sheet string, tplRow, add int, copyValues bool) (rowTemplate, error) {
	maxCol := sheetMaxCol(t.f, sheet)
	rt := captureRowTemplate(t.f, sheet, tplRow, maxCol)
	shifted, err := mergesBelow(t.f, sheet, tplRow)
	if err != nil {
		return rt, err
	}
	if err := unmergeRanges(t.f, sheet, shifted); err != nil {
		return rt, err
	}
	if add > 0 {
		if err := t.f.InsertRows(sheet, tplRow+1, add); err != nil {
			return rt, err
		}
		for off := 1; off <= add; off++ {
			if err := applyRowTemplate(t.f, sheet, tplRow+off, rt, copyValues); err != nil {
				return rt, err
			}
		}
	}
	return rt, remergeRanges(t.f, sheet, shifted, add)
}

// ExpandRows разворачивает строку с маркером startTag в n строк без
// заполнения: стили и высота шаблонной строки копируются в каждую
// вставленную, значения остаются пустыми — данные пишет вызывающая сторона.
// Возвращает номер первой строки таблицы.
func (t *Template) ExpandRows(sheet, startTag string, n int) (int, error) {
	tplRow, err := t.findMarkerRow(sheet, startTag)
	if err != nil {
		return 0, err
	}
	add := n - 1
	if add < 0 {
		add = 0
	}
	if _, err := t.expandAt(sheet, tplRow, add, false); err != nil {
		return 0, err
	}
	return tplRow, nil
}

// ExpandTable разворачивает помеченную табличную область в одну строку на
// каждую запись набора и заполняет её через резолвер. Для пустого набора
// строка остаётся единственной и статической: маркеры и токены снимаются,
// вставки строк не происходит.
func (t *Template) ExpandTable(sheet, startTag, endTag string, records RecordSet) (int, error) {
	tplRow, err := t.findMarkerRow(sheet, startTag)
	if err != nil {
		return 0, err
	}
	maxCol := sheetMaxCol(t.f, sheet)
	if len(records) == 0 {
		for col := 1; col <= maxCol; col++ {
			addr, _ := excelize.CoordinatesToCellName(col, tplRow)
			v, err := t.f.GetCellValue(sheet, addr)
			if err != nil || v == "" {
				continue
			}
			v = strings.ReplaceAll(v, startTag, "")
			v = strings.ReplaceAll(v, endTag, "")
			v = StripTokens(v)
			if err := t.f.SetCellValue(sheet, addr, v); err != nil {
				return 0, err
			}
		}
		return tplRow, nil
	}
	rt, err := t.expandAt(sheet, tplRow, len(records)-1, true)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		row := tplRow + i
		for col := 1; col <= maxCol; col++ {
			raw, ok := rt.values[col]
			if !ok {
				continue
			}
			val := strings.ReplaceAll(raw, startTag, "")
			val = strings.ReplaceAll(val, endTag, "")
			val = StripTokens(ResolveText(val, rec))
			addr, _ := excelize.CoordinatesToCellName(col, row)
			if num, ok := CoerceNumeric(val); ok {
				err = t.f.SetCellValue(sheet, addr, num)
			} else {
				err = t.f.SetCellValue(sheet, addr, val)
			}
			if err != nil {
				return 0, err
			}
		}
	}
	return tplRow, nil
}

// TotalColumn описывает колонку итоговой строки и агрегатную функцию для неё.
type TotalColumn struct {
	Col  string // буква колонки
	Func string // SUM, COUNTA
}

// RewriteTotalFormulas находит под таблицей первую строку, у которой в
// колонке A стоит метка anchor, и переписывает формулы указанных колонок на
// актуальные границы таблицы [firstRow, lastRow]. Отсутствие якоря фатально.
func (t *Template) RewriteTotalFormulas(sheet string, firstRow, lastRow int, anchor string, columns []TotalColumn) error {
	rows, err := t.f.GetRows(sheet)
	if err != nil {
		return err
	}
	totalRow := 0
	for r := lastRow + 1; r <= len(rows); r++ {
		addr, _ := excelize.CoordinatesToCellName(1, r)
		v, _ := t.f.GetCellValue(sheet, addr)
		if strings.TrimSpace(v) == anchor {
			totalRow = r
			break
		}
	}
	if totalRow == 0 {
		return fmt.Errorf("%w: %q (лист %s)", ErrTotalRowNotFound, anchor, sheet)
	}
	for _, c := range columns {
		formula := fmt.Sprintf("%s(%s%d:%s%d)", c.Func, c.Col, firstRow, c.Col, lastRow)
		cell := fmt.Sprintf("%s%d", c.Col, totalRow)
		if err := t.f.SetCellFormula(sheet, cell, formula); err != nil {
			return err
		}
	}
	return nil
}
