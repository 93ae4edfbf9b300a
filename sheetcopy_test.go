package docforge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/docforge"
)

func TestCopySheetTo(t *testing.T) {
	src := excelize.NewFile()
	sheet := "Sheet1"
	require.NoError(t, src.SetCellValue(sheet, "A1", "Заголовок"))
	require.NoError(t, src.SetCellValue(sheet, "B2", 1234.5))
	require.NoError(t, src.SetCellFormula(sheet, "B3", "SUM(B2:B2)"))
	require.NoError(t, src.MergeCell(sheet, "A1", "B1"))
	require.NoError(t, src.SetRowHeight(sheet, 1, 32))
	require.NoError(t, src.SetColWidth(sheet, "A", "A", 25))

	sid, err := src.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	require.NoError(t, err)
	require.NoError(t, src.SetCellStyle(sheet, "A1", "A1", sid))

	dst := excelize.NewFile()
	require.NoError(t, docforge.CopySheetTo(src, sheet, dst, "Экспорт"))

	got, err := dst.GetCellValue("Экспорт", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Заголовок", got)

	// число остаётся числом
	v, err := dst.GetCellValue("Экспорт", "B2")
	require.NoError(t, err)
	assert.Equal(t, "1234.5", v)

	formula, err := dst.GetCellFormula("Экспорт", "B3")
	require.NoError(t, err)
	assert.Equal(t, "SUM(B2:B2)", formula)

	merges, err := dst.GetMergeCells("Экспорт")
	require.NoError(t, err)
	require.Len(t, merges, 1)
	assert.Equal(t, "A1", merges[0].GetStartAxis())
	assert.Equal(t, "B1", merges[0].GetEndAxis())

	h, err := dst.GetRowHeight("Экспорт", 1)
	require.NoError(t, err)
	assert.InDelta(t, 32, h, 0.01)
	w, err := dst.GetColWidth("Экспорт", "A")
	require.NoError(t, err)
	assert.InDelta(t, 25, w, 0.01)

	// стиль переведён в идентификаторы целевой книги
	dsid, err := dst.GetCellStyle("Экспорт", "A1")
	require.NoError(t, err)
	st, err := dst.GetStyle(dsid)
	require.NoError(t, err)
	require.NotNil(t, st.Font)
	assert.True(t, st.Font.Bold)
}
