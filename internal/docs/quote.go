package docs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nikitaxru/docforge"
	"github.com/nikitaxru/docforge/internal/config"
	"github.com/nikitaxru/docforge/internal/crm"
)

const (
	tagQuoteLines    = "{{TableStart:GetQuoteLine}}"
	tagQuoteLinesEnd = "{{TableEnd:GetQuoteLine}}"
)

// Quote собирает коммерческое предложение (вариант без скидки). Шапка
// берётся из полей Quote.* первой строки предложения; предложение без строк
// читается отдельным запросом.
func (g *Generator) Quote(ctx context.Context, quoteID string) (*Manifest, error) {
	id := crm.EscapeSOQL(quoteID)

	items, err := g.src.QueryAll(ctx, fmt.Sprintf(soqlQuoteLines, id))
	if err != nil {
		return nil, fmt.Errorf("строки предложения: %w", err)
	}

	header := docforge.Record{}
	if len(items) == 0 {
		quote, err := g.fetchOne(ctx, fmt.Sprintf(soqlQuote, id), "Quote", quoteID)
		if err != nil {
			return nil, err
		}
		header = prefixRecord("Quote.", quote)
	} else {
		// Поля Quote.* уже приходят плоскими в каждой строке.
		for k, v := range items[0] {
			if strings.HasPrefix(k, "Quote.") {
				header[k] = v
			}
		}
	}
	g.mergeQuoteAccount(ctx, header)

	// Печатная нумерация сквозная.
	for i := range items {
		items[i]["Quote_Line_Item_Number_Quote__c"] = i + 1
	}

	tplPath, err := config.ResolveTemplate(g.templates.Quote)
	if err != nil {
		return nil, err
	}
	tpl, err := docforge.LoadTemplate(tplPath)
	if err != nil {
		return nil, err
	}
	defer tpl.Close()

	sheet := tpl.SheetOrDefault("")
	if err := tpl.ResolveSheet(sheet, header); err != nil {
		return nil, err
	}
	if _, err := tpl.ExpandTable(sheet, tagQuoteLines, tagQuoteLinesEnd, items); err != nil {
		return nil, err
	}
	if err := tpl.StripSheetTokens(sheet); err != nil {
		return nil, err
	}

	filePath, fileName, versionID, err := g.saveAndUpload(ctx, tpl, "Quote", str(header["Quote.Name"]), quoteID)
	if err != nil {
		return nil, err
	}
	m := &Manifest{
		FilePath:         filePath,
		FileName:         fileName,
		ContentVersionID: versionID,
		ItemCount:        len(items),
		TemplateUsed:     tplPath,
	}
	g.record(ctx, "quote", quoteID, m)
	return m, nil
}

// mergeQuoteAccount дополняет шапку адресными полями аккаунта; недоступность
// карточки не рушит генерацию.
func (g *Generator) mergeQuoteAccount(ctx context.Context, header docforge.Record) {
	accountID := str(header["Quote.AccountId"])
	if accountID == "" {
		return
	}
	rs, err := g.src.Query(ctx, fmt.Sprintf(soqlAccount, crm.EscapeSOQL(accountID)))
	if err != nil || len(rs) == 0 {
		if err != nil {
			g.log.Warn("карточка аккаунта недоступна", zap.String("account", accountID), zap.Error(err))
		}
		return
	}
	for k, v := range rs[0] {
		header["Quote.Account."+k] = v
	}
}
