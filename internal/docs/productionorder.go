package docs

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/docforge"
	"github.com/nikitaxru/docforge/internal/config"
	"github.com/nikitaxru/docforge/internal/crm"
)

const tagProPlanProducts = "{{TableStart:ProPlanProduct}}"

// Шрифт вьетнамских описаний производственного плана.
var poDescFont = excelize.Font{Family: "Times New Roman", Size: 11}

// ProductionOrder собирает производственный заказ контракта.
func (g *Generator) ProductionOrder(ctx context.Context, contractID string) (*Manifest, error) {
	id := crm.EscapeSOQL(contractID)

	contract, err := g.fetchOne(ctx, fmt.Sprintf(soqlContractPO, id), "Contract__c", contractID)
	if err != nil {
		return nil, err
	}
	products, err := g.src.Query(ctx, fmt.Sprintf(soqlOrderProducts, id))
	if err != nil {
		return nil, fmt.Errorf("позиции заказа: %w", err)
	}

	tplPath, err := config.ResolveTemplate(g.templates.ProductionOrder)
	if err != nil {
		return nil, err
	}
	tpl, err := docforge.LoadTemplate(tplPath)
	if err != nil {
		return nil, err
	}
	defer tpl.Close()

	sheet := tpl.SheetOrDefault("")
	if err := tpl.ResolveSheet(sheet, prefixRecord("Contract__c.", contract)); err != nil {
		return nil, err
	}
	if len(products) > 0 {
		if err := g.fillProductionTable(tpl, sheet, products); err != nil {
			return nil, err
		}
	}
	if err := tpl.StripSheetTokens(sheet); err != nil {
		return nil, err
	}

	label := str(contract["Production_Order_Number__c"])
	filePath, fileName, versionID, err := g.saveAndUpload(ctx, tpl, "ProductionOrder", label, contractID)
	if err != nil {
		return nil, err
	}
	m := &Manifest{
		FilePath:         filePath,
		FileName:         fileName,
		ContentVersionID: versionID,
		ItemCount:        len(products),
		TemplateUsed:     tplPath,
	}
	g.record(ctx, "production_order", contractID, m)
	return m, nil
}

func (g *Generator) fillProductionTable(tpl *docforge.Template, sheet string, products docforge.RecordSet) error {
	f := tpl.File()
	firstRow, err := tpl.ExpandRows(sheet, tagProPlanProducts, len(products))
	if err != nil {
		return err
	}
	for i, it := range products {
		row := firstRow + i
		cells := map[int]interface{}{
			1:  i + 1,
			2:  it["Order__r.Name"],
			3:  it["SKU__c"],
			5:  it["Length__c"],
			6:  it["Width__c"],
			7:  it["Height__c"],
			8:  it["Quantity__c"],
			9:  it["Crates__c"],
			12: it["Tons__c"],
			13: it["Cont__c"],
		}
		if err := fillRow(f, sheet, row, cells); err != nil {
			return err
		}

		// Описание: часть до первого дефиса жирным, остальное тем же шрифтом.
		desc := str(it["Vietnamese_Description__c"])
		addr := fmt.Sprintf("D%d", row)
		if err := tpl.SetBoldLead(sheet, addr, desc, "-", poDescFont); err != nil {
			return err
		}

		for _, mc := range []struct {
			col    string
			key    string
			numFmt string
		}{
			{"J", "m2__c", "0.00"},
			{"K", "m3__c", "0.00"},
		} {
			v, ok := asFloat(it[mc.key])
			if !ok || v == 0 {
				continue
			}
			cell := mc.col + fmt.Sprint(row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			if err := tpl.SetCellNumberFormat(sheet, cell, mc.numFmt); err != nil {
				return err
			}
		}

		if err := g.fillPacking(tpl, sheet, row, it["Packing__c"]); err != nil {
			return err
		}
		if err := fillDeliveryDate(f, sheet, row, str(it["Delivery_Date__c"])); err != nil {
			return err
		}
	}
	return nil
}

// fillPacking пишет упаковку числом с форматом «N.N viên/kiện»; нечисловое
// значение идёт текстом с той же подписью.
func (g *Generator) fillPacking(tpl *docforge.Template, sheet string, row int, v interface{}) error {
	if str(v) == "" {
		return nil
	}
	cell := fmt.Sprintf("N%d", row)
	if n, ok := asFloat(v); ok {
		if err := tpl.File().SetCellValue(sheet, cell, n); err != nil {
			return err
		}
		return tpl.SetCellNumberFormat(sheet, cell, `0.0 "viên/kiện"`)
	}
	return tpl.File().SetCellValue(sheet, cell, str(v)+"\nviên/kiện")
}

func fillDeliveryDate(f *excelize.File, sheet string, row int, raw string) error {
	if raw == "" {
		return nil
	}
	cell := fmt.Sprintf("O%d", row)
	if len(raw) >= 10 {
		if dt, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return f.SetCellValue(sheet, cell, dt.Format("02/01/2006"))
		}
	}
	return f.SetCellValue(sheet, cell, raw)
}
