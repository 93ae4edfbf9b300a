package docforge_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/docforge"
)

// TableSuite — сьют тестов разворота табличных областей
type TableSuite struct {
	suite.Suite
}

func TestTableSuite(t *testing.T) {
	suite.Run(t, new(TableSuite))
}

// newItemsTemplate собирает книгу: шапка, строка-шаблон с маркерами, строка
// итогов и объединённый диапазон под таблицей.
func (s *TableSuite) newItemsTemplate() *docforge.Template {
	f := excelize.NewFile()
	sheet := "Sheet1"
	s.Require().NoError(f.SetCellValue(sheet, "A1", "Позиция"))
	s.Require().NoError(f.SetCellValue(sheet, "B1", "Сумма"))
	s.Require().NoError(f.SetCellValue(sheet, "A2", "{{TableStart:Items}}{{Name}}"))
	s.Require().NoError(f.SetCellValue(sheet, "B2", `{{Amount\# #,##0.##}}{{TableEnd:Items}}`))
	s.Require().NoError(f.SetCellValue(sheet, "A3", "Total"))
	s.Require().NoError(f.SetCellFormula(sheet, "B3", "SUM(B2:B2)"))
	s.Require().NoError(f.SetCellValue(sheet, "A5", "Подпись"))
	s.Require().NoError(f.MergeCell(sheet, "A5", "B5"))
	return docforge.Wrap(f)
}

func (s *TableSuite) TestExpandTable() {
	t := s.newItemsTemplate()
	defer t.Close()
	f := t.File()

	records := docforge.RecordSet{
		{"Name": "Гранит", "Amount": 1250.5},
		{"Name": "Брусчатка", "Amount": 940.0},
		{"Name": "Бордюр", "Amount": 310.0},
	}
	firstRow, err := t.ExpandTable("Sheet1", "{{TableStart:Items}}", "{{TableEnd:Items}}", records)
	s.Require().NoError(err)
	s.Equal(2, firstRow)

	for i, rec := range records {
		got, err := f.GetCellValue("Sheet1", fmt.Sprintf("A%d", firstRow+i))
		s.Require().NoError(err)
		s.Equal(rec["Name"], got, "строка %d", i)
	}
	// числовая директива: два знака, разделители тысяч, затем обратная
	// коэрция в число
	b0, err := f.GetCellValue("Sheet1", "B2")
	s.Require().NoError(err)
	s.Equal("1250.5", b0)

	// строка итогов уехала вниз на две вставленные строки
	total, err := f.GetCellValue("Sheet1", "A5")
	s.Require().NoError(err)
	s.Equal("Total", total)

	// объединённый диапазон восстановлен со сдвигом
	merges, err := f.GetMergeCells("Sheet1")
	s.Require().NoError(err)
	s.Require().Len(merges, 1)
	s.Equal("A7", merges[0].GetStartAxis())
	s.Equal("B7", merges[0].GetEndAxis())
}

func (s *TableSuite) TestExpandTableEmptySet() {
	t := s.newItemsTemplate()
	defer t.Close()
	f := t.File()

	firstRow, err := t.ExpandTable("Sheet1", "{{TableStart:Items}}", "{{TableEnd:Items}}", nil)
	s.Require().NoError(err)
	s.Equal(2, firstRow)

	// строк не прибавилось, маркеры и токены сняты
	a2, err := f.GetCellValue("Sheet1", "A2")
	s.Require().NoError(err)
	s.Equal("", a2)
	total, err := f.GetCellValue("Sheet1", "A3")
	s.Require().NoError(err)
	s.Equal("Total", total)
}

func (s *TableSuite) TestExpandTableMarkerMissing() {
	t := s.newItemsTemplate()
	defer t.Close()

	_, err := t.ExpandTable("Sheet1", "{{TableStart:Nothing}}", "{{TableEnd:Nothing}}", nil)
	s.Require().ErrorIs(err, docforge.ErrMarkerNotFound)
}

func (s *TableSuite) TestExpandRowsLeavesValuesEmpty() {
	t := s.newItemsTemplate()
	defer t.Close()
	f := t.File()

	firstRow, err := t.ExpandRows("Sheet1", "{{TableStart:Items}}", 3)
	s.Require().NoError(err)
	s.Equal(2, firstRow)

	// вставленные строки пустые, данные пишет вызывающая сторона
	for _, addr := range []string{"A3", "A4"} {
		got, err := f.GetCellValue("Sheet1", addr)
		s.Require().NoError(err)
		s.Equal("", got)
	}
	// шаблонная строка с маркером осталась на месте
	a2, err := f.GetCellValue("Sheet1", "A2")
	s.Require().NoError(err)
	s.Contains(a2, "{{TableStart:Items}}")
}

func (s *TableSuite) TestRewriteTotalFormulas() {
	t := s.newItemsTemplate()
	defer t.Close()
	f := t.File()

	firstRow, err := t.ExpandRows("Sheet1", "{{TableStart:Items}}", 4)
	s.Require().NoError(err)
	lastRow := firstRow + 3

	s.Require().NoError(t.RewriteTotalFormulas("Sheet1", firstRow, lastRow, "Total", []docforge.TotalColumn{
		{Col: "B", Func: "SUM"},
		{Col: "A", Func: "COUNTA"},
	}))
	formula, err := f.GetCellFormula("Sheet1", "B6")
	s.Require().NoError(err)
	s.Equal("SUM(B2:B5)", formula)
	formula, err = f.GetCellFormula("Sheet1", "A6")
	s.Require().NoError(err)
	s.Equal("COUNTA(A2:A5)", formula)
}

func (s *TableSuite) TestRewriteTotalFormulasAnchorMissing() {
	t := s.newItemsTemplate()
	defer t.Close()

	err := t.RewriteTotalFormulas("Sheet1", 2, 2, "Итого нет", []docforge.TotalColumn{{Col: "B", Func: "SUM"}})
	s.Require().ErrorIs(err, docforge.ErrTotalRowNotFound)
}

func (s *TableSuite) TestResolveSheetAndStrip() {
	f := excelize.NewFile()
	sheet := "Sheet1"
	s.Require().NoError(f.SetCellValue(sheet, "A1", "Контракт {{Contract__c.Name}}"))
	s.Require().NoError(f.SetCellValue(sheet, "B1", "{{Contract__c.Total__c}}"))
	s.Require().NoError(f.SetCellValue(sheet, "C1", "{{Unknown.Path}}"))
	t := docforge.Wrap(f)
	defer t.Close()

	rec := docforge.Record{
		"Contract__c.Name":     "C-42",
		"Contract__c.Total__c": "1,234.50",
	}
	s.Require().NoError(t.ResolveSheet(sheet, rec))

	a1, _ := f.GetCellValue(sheet, "A1")
	s.Equal("Контракт C-42", a1)
	// чистое число пишется числом
	b1, _ := f.GetCellValue(sheet, "B1")
	s.Equal("1234.5", b1)
	// неизвестный токен пережил резолв
	c1, _ := f.GetCellValue(sheet, "C1")
	s.Equal("{{Unknown.Path}}", c1)

	s.Require().NoError(t.StripSheetTokens(sheet))
	c1, _ = f.GetCellValue(sheet, "C1")
	s.Equal("", c1)
}

func (s *TableSuite) TestResolveSheetNumberDirectiveKeepsFormat() {
	f := excelize.NewFile()
	sheet := "Sheet1"
	s.Require().NoError(f.SetCellValue(sheet, "A1", `{{Contract__c.Total_Price_USD__c\# #,##0.##}}`))
	s.Require().NoError(f.SetCellValue(sheet, "B1", "{{Contract__c.Total_Price_USD__c}}"))
	t := docforge.Wrap(f)
	defer t.Close()

	rec := docforge.Record{"Contract__c.Total_Price_USD__c": 5000.0}
	s.Require().NoError(t.ResolveSheet(sheet, rec))

	// значение остаётся числом, но директива \# сохраняет денежный формат
	raw, err := f.GetCellValue(sheet, "A1", excelize.Options{RawCellValue: true})
	s.Require().NoError(err)
	s.Equal("5000", raw)
	a1, _ := f.GetCellValue(sheet, "A1")
	s.Equal("5,000.00", a1)
	// без директивы формат не навязывается
	b1, _ := f.GetCellValue(sheet, "B1")
	s.Equal("5000", b1)
}

func (s *TableSuite) TestMergeEqualCells() {
	f := excelize.NewFile()
	sheet := "Sheet1"
	for i, v := range []string{"Гранит", "Гранит", "Гранит", "Брусчатка", "Бордюр", "Бордюр"} {
		s.Require().NoError(f.SetCellValue(sheet, fmt.Sprintf("B%d", 2+i), v))
	}
	t := docforge.Wrap(f)
	defer t.Close()

	s.Require().NoError(t.MergeEqualCells(sheet, 2, 2, 7))

	merges, err := f.GetMergeCells(sheet)
	s.Require().NoError(err)
	axes := map[string]string{}
	for _, m := range merges {
		axes[m.GetStartAxis()] = m.GetEndAxis()
	}
	s.Equal("B4", axes["B2"], "блок из трёх одинаковых значений")
	s.Equal("B7", axes["B6"], "хвостовой блок из двух значений")
	s.NotContains(axes, "B5", "одиночное значение не объединяется")
}
