package docs

import (
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/docforge"
	"github.com/nikitaxru/docforge/internal/config"
)

// CombinedExport собирает упаковочный лист и инвойс в одну книгу с двумя
// листами. Записи CRM читаются один раз; позиции — объединённым запросом с
// полями обоих документов.
func (g *Generator) CombinedExport(ctx context.Context, shipmentID string) (*Manifest, error) {
	d, err := g.loadShipmentData(ctx, shipmentID, soqlShipmentInvoice, soqlItemsCombined, true, true)
	if err != nil {
		return nil, err
	}

	packPath, err := config.ResolveTemplate(g.templates.PackingList)
	if err != nil {
		return nil, err
	}
	packTpl, err := docforge.LoadTemplate(packPath)
	if err != nil {
		return nil, err
	}
	defer packTpl.Close()
	if err := g.renderPackingList(packTpl, d); err != nil {
		return nil, err
	}

	invPath, err := g.invoiceTemplate(d.discount)
	if err != nil {
		return nil, err
	}
	invTpl, err := docforge.LoadTemplate(invPath)
	if err != nil {
		return nil, err
	}
	defer invTpl.Close()
	if err := g.renderInvoice(invTpl, d); err != nil {
		return nil, err
	}

	combined := excelize.NewFile()
	out := docforge.Wrap(combined)
	defer out.Close()
	if err := docforge.CopySheetTo(packTpl.File(), packTpl.SheetOrDefault("PackingList"), combined, "Packing List"); err != nil {
		return nil, err
	}
	if err := docforge.CopySheetTo(invTpl.File(), invTpl.SheetOrDefault("Invoice"), combined, "Invoice"); err != nil {
		return nil, err
	}
	if err := combined.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	filePath, fileName, versionID, err := g.saveAndUpload(ctx, out, "Combined_Export", d.label(), shipmentID)
	if err != nil {
		return nil, err
	}
	m := &Manifest{
		FilePath:         filePath,
		FileName:         fileName,
		ContentVersionID: versionID,
		ItemCount:        len(d.items),
		DepositCount:     len(d.deposits),
		RefundCount:      len(d.refunds),
		DiscountApplied:  d.discount,
		TemplateUsed:     invPath,
		Sheets:           []string{"Packing List", "Invoice"},
	}
	g.record(ctx, "combined_export", shipmentID, m)
	return m, nil
}
