package docs

import (
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nikitaxru/docforge"
	"github.com/nikitaxru/docforge/internal/config"
)

const (
	tokenTermsOfSales   = "{{Shipment__c.Terms_of_Sales__c}}"
	tokenTermsOfPayment = "{{Shipment__c.Terms_of_Payment__c}}"
	tagDeposits         = "{{TableStart:InvoiceDeposit}}"
	tagRefunds          = "{{TableStart:Shipment__c.r.Cases__r}}"
	tagSurcharges       = "{{TableStart:Surcharges}}"
)

// Invoice собирает инвойс отгрузки. Шаблон выбирается по скидке: при
// ненулевом проценте или сумме используется вариант со скидочными строками.
func (g *Generator) Invoice(ctx context.Context, shipmentID string) (*Manifest, error) {
	d, err := g.loadShipmentData(ctx, shipmentID, soqlShipmentInvoice, soqlItemsInvoice, false, true)
	if err != nil {
		return nil, err
	}

	tplPath, err := g.invoiceTemplate(d.discount)
	if err != nil {
		return nil, err
	}
	tpl, err := docforge.LoadTemplate(tplPath)
	if err != nil {
		return nil, err
	}
	defer tpl.Close()

	if err := g.renderInvoice(tpl, d); err != nil {
		return nil, err
	}

	filePath, fileName, versionID, err := g.saveAndUpload(ctx, tpl, "Invoice", d.label(), shipmentID)
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
		TemplateUsed:     tplPath,
		FreightOptions:   d.freight,
	}
	g.record(ctx, "invoice", shipmentID, m)
	return m, nil
}

func (g *Generator) invoiceTemplate(discount bool) (string, error) {
	path := g.templates.Invoice
	if discount {
		path = g.templates.InvoiceDiscount
	}
	return config.ResolveTemplate(path)
}

// renderInvoice заполняет лист Invoice: шапка, три группы чекбоксов, таблица
// позиций и секции депозитов, возвратов и надбавки.
func (g *Generator) renderInvoice(tpl *docforge.Template, d *shipmentData) error {
	sheet := tpl.SheetOrDefault("Invoice")
	f := tpl.File()

	header := prefixRecord("Shipment__c.", d.shipment).
		Merge(prefixRecord("Shipment__c.Consignee__r.", d.account))
	header["Shipment__c.Port_of_Origin__c"] = strings.ToUpper(str(d.shipment["Port_of_Origin__c"]))
	// Пиклисты подставляются чекбоксами отдельным проходом.
	delete(header, "Shipment__c.Freight__c")
	delete(header, "Shipment__c.Terms_of_Sales__c")
	delete(header, "Shipment__c.Terms_of_Payment__c")

	if err := tpl.ResolveSheet(sheet, header); err != nil {
		return err
	}
	for _, cb := range []struct {
		token    string
		options  []string
		selected string
	}{
		{tokenFreight, d.freight, str(d.shipment["Freight__c"])},
		{tokenTermsOfSales, d.termsOfSales, str(d.shipment["Terms_of_Sales__c"])},
		{tokenTermsOfPayment, d.termsOfPayment, str(d.shipment["Terms_of_Payment__c"])},
	} {
		if err := g.applyCheckboxes(tpl, sheet, cb.token, cb.options, cb.selected, true); err != nil {
			return err
		}
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
		cont := str(it["Container__r.STT_Cont__c"])
		if cont == "" {
			cont = str(it["Container__r.Name"])
		}
		price := strings.TrimSpace(str(it["Sales_Price_USD__c"]) + " " + str(it["Charge_Unit__c"]))
		cells := map[int]interface{}{
			1:  lineNo,
			2:  it["Product_Description__c"],
			3:  it["Length__c"],
			4:  it["Width__c"],
			5:  it["Height__c"],
			6:  it["Quantity_For_print__c"],
			7:  it["Unit_for_print__c"],
			8:  cont,
			9:  price,
			10: it["Total_Price_USD__c"],
			11: it["Order_No__c"],
		}
		if err := fillRow(f, sheet, row, cells); err != nil {
			return err
		}
	}

	// Ячейки денежных секций ищутся после раздвижки таблицы, иначе вставка
	// строк сдвинула бы найденные адреса. Их токены резолв не трогает:
	// таких путей в header нет.
	depositText, _, err := tpl.FindCell(sheet, tagDeposits)
	if err != nil {
		return err
	}
	depositAmount, _, err := tpl.FindCell(sheet, "Reconciled_Amount__c")
	if err != nil {
		return err
	}
	refundCell, _, err := tpl.FindCell(sheet, tagRefunds)
	if err != nil {
		return err
	}
	surchargeText, _, err := tpl.FindCell(sheet, tagSurcharges)
	if err != nil {
		return err
	}
	surchargeAmount, _, err := tpl.FindCell(sheet, "Surcharge_amount_USD__c")
	if err != nil {
		return err
	}

	if err := g.fillDeposits(f, sheet, depositText, depositAmount, d.deposits); err != nil {
		return err
	}
	if err := g.fillRefunds(f, sheet, refundCell, d.refunds); err != nil {
		return err
	}
	if err := g.fillSurcharge(f, sheet, surchargeText, surchargeAmount, d.shipment["Surcharge_amount_USD__c"]); err != nil {
		return err
	}
	return tpl.StripSheetTokens(sheet)
}

// fillDeposits пишет многострочный блок «Deduct: Deposit of PI X» и суммы
// напротив; без депозитов обе ячейки очищаются.
func (g *Generator) fillDeposits(f *excelize.File, sheet, textCell, amountCell string, deposits docforge.RecordSet) error {
	if textCell == "" || amountCell == "" {
		return nil
	}
	if len(deposits) == 0 {
		if err := f.SetCellValue(sheet, textCell, nil); err != nil {
			return err
		}
		return f.SetCellValue(sheet, amountCell, nil)
	}
	labels := make([]string, 0, len(deposits))
	amounts := make([]string, 0, len(deposits))
	for _, rec := range deposits {
		labels = append(labels, strings.TrimSpace("Deduct: Deposit of PI "+str(rec["Contract_PI__r.Name"])))
		if amt, ok := asFloat(rec["Reconciled_Amount__c"]); ok {
			amounts = append(amounts, docforge.FormatThousands(amt))
		} else {
			amounts = append(amounts, "")
		}
	}
	if err := f.SetCellValue(sheet, textCell, strings.Join(labels, "\n")); err != nil {
		return err
	}
	return f.SetCellValue(sheet, amountCell, strings.Join(amounts, "\n"))
}

func (g *Generator) fillRefunds(f *excelize.File, sheet, cell string, refunds docforge.RecordSet) error {
	if cell == "" {
		return nil
	}
	if len(refunds) == 0 {
		return f.SetCellValue(sheet, cell, nil)
	}
	lines := make([]string, 0, len(refunds))
	for _, rec := range refunds {
		line := str(rec["Reason"])
		if amt, ok := asFloat(rec["Refund_Amount__c"]); ok {
			line = strings.TrimSpace(line + " " + docforge.FormatThousands(amt))
		}
		lines = append(lines, line)
	}
	return f.SetCellValue(sheet, cell, strings.Join(lines, "\n"))
}

func (g *Generator) fillSurcharge(f *excelize.File, sheet, textCell, amountCell string, amount interface{}) error {
	amt, ok := asFloat(amount)
	if ok && amt != 0 {
		if textCell != "" {
			if err := f.SetCellValue(sheet, textCell, "Surcharge:"); err != nil {
				return err
			}
		}
		if amountCell != "" {
			return f.SetCellValue(sheet, amountCell, docforge.FormatThousands(amt))
		}
		return nil
	}
	if textCell != "" {
		if err := f.SetCellValue(sheet, textCell, nil); err != nil {
			return err
		}
	}
	if amountCell != "" {
		return f.SetCellValue(sheet, amountCell, nil)
	}
	return nil
}
