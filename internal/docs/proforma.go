package docs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/nikitaxru/docforge"
	"github.com/nikitaxru/docforge/internal/config"
	"github.com/nikitaxru/docforge/internal/crm"
)

const (
	tagContractProducts    = "{{TableStart:ContractProduct2}}"
	tagContractProductsEnd = "{{TableEnd:ContractProduct2}}"
	tagPISurcharge         = "{{TableStart:PISurcharge}}"
	tagPISurchargeEnd      = "{{TableEnd:PISurcharge}}"
)

// Ведущая текстовая часть названия продукта: всё до первой цифры или скобки.
var rxProductLead = regexp.MustCompile(`^([^\d(]+)`)

// ProformaInvoice собирает проформу-инвойс контракта (вариант без скидки).
func (g *Generator) ProformaInvoice(ctx context.Context, contractID string) (*Manifest, error) {
	id := crm.EscapeSOQL(contractID)

	contract, err := g.fetchOne(ctx, fmt.Sprintf(soqlContract, id), "Contract__c", contractID)
	if err != nil {
		return nil, err
	}

	products, err := g.src.QueryAll(ctx, fmt.Sprintf(soqlContractProducts, id))
	if err != nil {
		return nil, fmt.Errorf("позиции контракта: %w", err)
	}
	// Печатная нумерация сквозная, исходное поле перезаписывается.
	for i := range products {
		products[i]["Line_number_For_print__c"] = i + 1
	}

	surcharges, err := g.src.QueryAll(ctx, fmt.Sprintf(soqlContractSurcharges, id))
	if err != nil {
		g.log.Warn("надбавки контракта недоступны", zap.String("contract", contractID), zap.Error(err))
		surcharges = nil
	}

	tplPath, err := config.ResolveTemplate(g.templates.ProformaInvoice)
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

	firstRow, err := tpl.ExpandTable(sheet, tagContractProducts, tagContractProductsEnd, products)
	if err != nil {
		return nil, err
	}
	if len(products) > 0 {
		if err := g.boldProductLeads(tpl, sheet, firstRow, products); err != nil {
			return nil, err
		}
		lastRow := firstRow + len(products) - 1
		if err := tpl.MergeEqualCells(sheet, 2, firstRow, lastRow); err != nil {
			return nil, err
		}
	}

	// Таблица надбавок в шаблоне необязательна.
	if _, err := tpl.ExpandTable(sheet, tagPISurcharge, tagPISurchargeEnd, surcharges); err != nil {
		if !errors.Is(err, docforge.ErrMarkerNotFound) {
			return nil, err
		}
	}
	if err := tpl.StripSheetTokens(sheet); err != nil {
		return nil, err
	}

	filePath, fileName, versionID, err := g.saveAndUpload(ctx, tpl, "PI_NoDiscount", str(contract["Name"]), contractID)
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
	g.record(ctx, "proforma_invoice", contractID, m)
	return m, nil
}

// boldProductLeads выделяет жирным в описании позиции ведущую часть названия
// продукта (до первой цифры или скобки).
func (g *Generator) boldProductLeads(tpl *docforge.Template, sheet string, firstRow int, products docforge.RecordSet) error {
	f := tpl.File()
	for i, rec := range products {
		name := str(rec["Product__r.Name"])
		if name == "" {
			continue
		}
		lead := ""
		if m := rxProductLead.FindStringSubmatch(name); m != nil {
			lead = strings.TrimSpace(m[1])
		}
		if lead == "" {
			continue
		}
		addr := fmt.Sprintf("B%d", firstRow+i)
		desc, err := f.GetCellValue(sheet, addr)
		if err != nil {
			return err
		}
		if desc == "" || !strings.Contains(desc, lead) {
			continue
		}
		if err := tpl.SetPartialBold(sheet, addr, desc, lead); err != nil {
			return err
		}
	}
	return nil
}
