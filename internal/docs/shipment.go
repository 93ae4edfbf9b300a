package docs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nikitaxru/docforge"
	"github.com/nikitaxru/docforge/internal/crm"
)

// shipmentData — всё, что нужно сборщикам документов отгрузки. Инвойсные
// секции (депозиты, возвраты, пиклисты условий) заполняются по запросу.
type shipmentData struct {
	shipment docforge.Record
	account  docforge.Record
	items    docforge.RecordSet

	totalConts float64 // сумма контейнеров по букингам

	freight        []string
	termsOfSales   []string
	termsOfPayment []string

	deposits docforge.RecordSet
	refunds  docforge.RecordSet
	discount bool
}

func (d *shipmentData) label() string {
	if no := str(d.shipment["Invoice_Packing_list_no__c"]); no != "" {
		return no
	}
	return str(d.shipment["Name"])
}

// loadShipmentData читает отгрузку и сопутствующие записи. shipmentSOQL и
// itemsSOQL различаются по документам; withBookings и withInvoice включают
// блоки упаковочного листа и инвойса соответственно.
func (g *Generator) loadShipmentData(ctx context.Context, shipmentID, shipmentSOQL, itemsSOQL string, withBookings, withInvoice bool) (*shipmentData, error) {
	id := crm.EscapeSOQL(shipmentID)

	d := &shipmentData{}
	d.freight = g.picklist(ctx, "Shipment__c", "Freight__c")

	shipment, err := g.fetchOne(ctx, fmt.Sprintf(shipmentSOQL, id), "Shipment__c", shipmentID)
	if err != nil {
		return nil, err
	}
	d.shipment = shipment
	d.account = g.fetchConsignee(ctx, str(shipment["Consignee__c"]))

	d.items, err = g.src.QueryAll(ctx, fmt.Sprintf(itemsSOQL, id))
	if err != nil {
		return nil, fmt.Errorf("позиции отгрузки: %w", err)
	}

	if withBookings {
		bookings, err := g.src.QueryAll(ctx, fmt.Sprintf(soqlBookings, id))
		if err != nil {
			return nil, fmt.Errorf("букинги отгрузки: %w", err)
		}
		for _, b := range bookings {
			if n, ok := asFloat(b["Cont_Quantity__c"]); ok {
				d.totalConts += n
			}
		}
	}

	if withInvoice {
		d.termsOfSales = g.picklist(ctx, "Shipment__c", "Terms_of_Sales__c")
		d.termsOfPayment = g.picklist(ctx, "Shipment__c", "Terms_of_Payment__c")
		d.discount = discountExists(shipment)

		d.deposits, err = g.src.QueryAll(ctx, fmt.Sprintf(soqlDeposits, id))
		if err != nil {
			return nil, fmt.Errorf("депозиты отгрузки: %w", err)
		}
		d.refunds, err = g.src.QueryAll(ctx, fmt.Sprintf(soqlRefunds, id))
		if err != nil {
			return nil, fmt.Errorf("возвраты отгрузки: %w", err)
		}
	}
	return d, nil
}

// fetchConsignee читает карточку грузополучателя; отсутствие карточки не
// рушит генерацию, поля просто останутся пустыми.
func (g *Generator) fetchConsignee(ctx context.Context, accountID string) docforge.Record {
	if accountID == "" {
		return docforge.Record{}
	}
	rs, err := g.src.Query(ctx, fmt.Sprintf(soqlAccount, crm.EscapeSOQL(accountID)))
	if err != nil {
		g.log.Warn("карточка грузополучателя недоступна", zap.String("account", accountID), zap.Error(err))
		return docforge.Record{}
	}
	if len(rs) == 0 {
		return docforge.Record{}
	}
	return rs[0]
}
