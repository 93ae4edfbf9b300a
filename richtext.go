package docforge

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	checkedBox   = "☑"
	uncheckedBox = "☐"
)

// FormatCheckboxes рендерит пиклист статическими чекбоксами: по строке на
// вариант, отмечен тот, что совпадает с выбранным значением (без учёта
// регистра и краевых пробелов).
func FormatCheckboxes(options []string, selected string, uppercase bool) string {
	sel := strings.ToUpper(strings.TrimSpace(selected))
	lines := make([]string, 0, len(options))
	for _, opt := range options {
		mark := uncheckedBox
		if strings.ToUpper(strings.TrimSpace(opt)) == sel {
			mark = checkedBox
		}
		display := opt
		if uppercase {
			display = strings.ToUpper(opt)
		}
		lines = append(lines, mark+" "+display)
	}
	return strings.Join(lines, "\n")
}

// SetPartialBold пишет текст в ячейку, выделяя жирным первое вхождение
// target. Поиск регистрозависимый; фрагменты до и после совпадения
// сохраняются дословно, включая пробелы. Пустой или не найденный target —
// обычная запись текста.
func (t *Template) SetPartialBold(sheet, cell, text, target string) error {
	if target == "" {
		return t.f.SetCellValue(sheet, cell, text)
	}
	idx := strings.Index(text, target)
	if idx < 0 {
		return t.f.SetCellValue(sheet, cell, text)
	}
	var runs []excelize.RichTextRun
	if idx > 0 {
		runs = append(runs, excelize.RichTextRun{Text: text[:idx]})
	}
	runs = append(runs, excelize.RichTextRun{Text: target, Font: &excelize.Font{Bold: true}})
	if rest := text[idx+len(target):]; rest != "" {
		runs = append(runs, excelize.RichTextRun{Text: rest})
	}
	return t.f.SetCellRichText(sheet, cell, runs)
}

// SetBoldLead пишет текст, выделяя жирным часть до первого вхождения sep;
// остаток, начиная с разделителя, идёт тем же шрифтом без выделения.
func (t *Template) SetBoldLead(sheet, cell, text, sep string, font excelize.Font) error {
	i := strings.Index(text, sep)
	if i <= 0 {
		return t.f.SetCellValue(sheet, cell, text)
	}
	bold := font
	bold.Bold = true
	plain := font
	plain.Bold = false
	runs := []excelize.RichTextRun{
		{Text: text[:i], Font: &bold},
		{Text: text[i:], Font: &plain},
	}
	return t.f.SetCellRichText(sheet, cell, runs)
}

// SetWrappedText пишет многострочный текст и включает перенос в стиле
// ячейки, не трогая остальные атрибуты (копия стиля при записи).
func (t *Template) SetWrappedText(sheet, cell, text string) error {
	if err := t.f.SetCellValue(sheet, cell, text); err != nil {
		return err
	}
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
	if st.Alignment == nil {
		st.Alignment = &excelize.Alignment{}
	}
	st.Alignment.WrapText = true
	nsid, err := t.f.NewStyle(st)
	if err != nil {
		return err
	}
	return t.f.SetCellStyle(sheet, cell, cell, nsid)
}
