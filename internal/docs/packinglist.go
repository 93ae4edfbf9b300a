package docs

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/docforge"
	"github.com/nikitaxru/docforge/internal/config"
)

const (
	tagContainerItems = "{{TableStart:ContainerItems}}"
	tagBookings       = "{{TableStart:Shipment__c.r.Bookings__r}}"
	tokenFreight      = "{{Shipment__c.Freight__c}}"
)

// PackingList собирает упаковочный лист отгрузки и выгружает его в CRM.
func (g *Generator) PackingList(ctx context.Context, shipmentID string) (*Manifest, error) {
	d, err := g.loadShipmentData(ctx, shipmentID, soqlShipmentPacking, soqlItemsPacking, true, false)
	if err != nil {
		return nil, err
	}

	tplPath, err := config.ResolveTemplate(g.templates.PackingList)
	if err != nil {
		return nil, err
	}
	tpl, err := docforge.LoadTemplate(tplPath)
	if err != nil {
		return nil, err
	}
	defer tpl.Close()

	if err := g.renderPackingList(tpl, d); err != nil {
		return nil, err
	}

	filePath, fileName, versionID, err := g.saveAndUpload(ctx, tpl, "Packing_List", d.label(), shipmentID)
	if err != nil {
		return nil, err
	}
	m := &Manifest{
		FilePath:         filePath,
		FileName:         fileName,
		ContentVersionID: versionID,
		ItemCount:        len(d.items),
		TemplateUsed:     tplPath,
		FreightOptions:   d.freight,
	}
	g.record(ctx, "packing_list", shipmentID, m)
	return m, nil
}

// renderPackingList заполняет лист PackingList: шапка, чекбоксы фрахта,
// таблица позиций и строка итогов.
func (g *Generator) renderPackingList(tpl *docforge.Template, d *shipmentData) error {
	sheet := tpl.SheetOrDefault("PackingList")
	f := tpl.File()

	header := prefixRecord("Shipment__c.", d.shipment).
		Merge(prefixRecord("Shipment__c.Consignee__r.", d.account))
	// Фрахт подставляется чекбоксами отдельным проходом.
	delete(header, "Shipment__c.Freight__c")

	// Маркер букингов заменяется суммарным числом контейнеров.
	if addr, ok, err := tpl.FindCell(sheet, tagBookings); err != nil {
		return err
	} else if ok {
		if err := f.SetCellValue(sheet, addr, d.totalConts); err != nil {
			return err
		}
	}

	if err := tpl.ResolveSheet(sheet, header); err != nil {
		return err
	}
	if err := g.applyCheckboxes(tpl, sheet, tokenFreight, d.freight, str(d.shipment["Freight__c"]), false); err != nil {
		return err
	}

	firstRow, err := tpl.ExpandRows(sheet, tagContainerItems, maxInt(1, len(d.items)))
	if err != nil {
		return err
	}
	for i, it := range d.items {
		row := firstRow + i
		lineNo := it["Line_item_no_for_print__c"]
		if str(lineNo) == "" {
			lineNo = i + 1
		}
		cells := map[int]interface{}{
			1:  lineNo,
			2:  it["Product_Description__c"],
			3:  it["Length__c"],
			4:  it["Width__c"],
			5:  it["Height__c"],
			6:  it["Quantity_For_print__c"],
			7:  it["Unit_for_print__c"],
			8:  it["Crates__c"],
			9:  strings.TrimSpace(str(it["Packing__c"])) + " pcs/crate",
			10: it["Container__r.Container_Weight_Regulation__c"],
			11: it["Container__r.Name"],
			13: it["Order_No__c"],
		}
		if err := fillRow(f, sheet, row, cells); err != nil {
			return err
		}
	}

	lastRow := firstRow + maxInt(1, len(d.items)) - 1
	if err := tpl.RewriteTotalFormulas(sheet, firstRow, lastRow, "Total", []docforge.TotalColumn{
		{Col: "H", Func: "SUM"},
		{Col: "J", Func: "SUM"},
		{Col: "K", Func: "COUNTA"},
	}); err != nil {
		return err
	}
	return tpl.StripSheetTokens(sheet)
}

// applyCheckboxes заменяет токен пиклиста статическими чекбоксами и включает
// перенос строк в ячейке.
func (g *Generator) applyCheckboxes(tpl *docforge.Template, sheet, token string, options []string, selected string, uppercase bool) error {
	addr, ok, err := tpl.FindCell(sheet, token)
	if err != nil || !ok {
		return err
	}
	cur, err := tpl.File().GetCellValue(sheet, addr)
	if err != nil {
		return err
	}
	text := docforge.FormatCheckboxes(options, selected, uppercase)
	return tpl.SetWrappedText(sheet, addr, strings.ReplaceAll(cur, token, text))
}

func fillRow(f *excelize.File, sheet string, row int, cells map[int]interface{}) error {
	for col, v := range cells {
		addr, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, addr, v); err != nil {
			return err
		}
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
