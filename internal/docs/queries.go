package docs

// SOQL-запросы всех сборщиков. Идентификаторы подставляются через
// crm.EscapeSOQL.

const soqlShipmentPacking = `SELECT Name, Consignee__c, Invoice_Packing_list_no__c, Issued_date__c, Port_of_Origin__c,
Final_Destination__c, Stockyard__c, Ocean_Vessel__c, B_L_No__c, Freight__c,
Departure_Date_ETD__c, Arrival_Schedule_ETA__c, Remark_number_on_documents__c,
Terms_of_Sales__c, Terms_of_Payment__c
FROM Shipment__c WHERE Id = '%s'`

const soqlShipmentInvoice = `SELECT Name, Consignee__c, Invoice_Packing_list_no__c, Issued_date__c,
Port_of_Origin__c, Final_Destination__c, Stockyard__c,
Ocean_Vessel__c, B_L_No__c, Freight__c,
Departure_Date_ETD__c, Arrival_Schedule_ETA__c,
Remark_number_on_documents__c,
Terms_of_Sales__c, Terms_of_Payment__c,
Subtotal_USD__c, Fumigation__c, In_words__c,
Total_Price_USD__c, Surcharge_amount_USD__c,
Discount_Percentage__c, Discount_Amount__c
FROM Shipment__c WHERE Id = '%s'`

const soqlAccount = `SELECT Name, BillingStreet, BillingCity, BillingPostalCode, BillingCountry,
Phone, Fax__c, VAT__c
FROM Account WHERE Id = '%s'`

const soqlBookings = `SELECT Id, Cont_Quantity__c FROM Booking__c WHERE Shipment__c = '%s'`

const soqlItemsPacking = `SELECT Line_item_no_for_print__c, Product_Description__c, Length__c, Width__c, Height__c,
Quantity_For_print__c, Unit_for_print__c, Crates__c, Packing__c, Order_No__c,
Container__r.Name, Container__r.Container_Weight_Regulation__c
FROM Container_Item__c WHERE Shipment__c = '%s'`

const soqlItemsInvoice = `SELECT Line_item_no_for_print__c, Product_Description__c,
Length__c, Width__c, Height__c,
Quantity_For_print__c, Unit_for_print__c,
Sales_Price_USD__c, Charge_Unit__c,
Total_Price_USD__c, Order_No__c,
Container__r.STT_Cont__c
FROM Container_Item__c WHERE Shipment__c = '%s'
ORDER BY Line_item_no_for_print__c`

// Объединённый экспорт читает позиции один раз с полями обоих документов.
const soqlItemsCombined = `SELECT Line_item_no_for_print__c, Product_Description__c,
Length__c, Width__c, Height__c,
Quantity_For_print__c, Unit_for_print__c,
Crates__c, Packing__c, Order_No__c,
Sales_Price_USD__c, Charge_Unit__c, Total_Price_USD__c,
Container__r.Name, Container__r.Container_Weight_Regulation__c,
Container__r.STT_Cont__c
FROM Container_Item__c WHERE Shipment__c = '%s'
ORDER BY Line_item_no_for_print__c`

const soqlDeposits = `SELECT Contract_PI__r.Name, Reconciled_Amount__c
FROM Receipt_Reconciliation__c WHERE Invoice__c = '%s'`

const soqlRefunds = `SELECT Reason, Refund_Amount__c
FROM Case WHERE Refund_in_Shipment__c = '%s'`

const soqlContract = `SELECT Id, Name, CreatedDate, Port_of_Origin__c, Port_of_Discharge__c, Stockyard__c,
Account__r.Name, Account__r.BillingStreet, Account__r.BillingCity,
Account__r.BillingPostalCode, Account__r.BillingCountry, Account__r.Phone,
Account__r.Fax__c, Account__r.VAT__c,
Export_Route_Carrier__c, Incoterms__c, Packing__c, Shipping_Schedule__c,
Terms_of_Sale__c, Terms_of_Payment__c, REMARK_NUMBER_ON_DOCUMENTS__c,
Total_Crates__c, Total_m3__c, Total_Tons__c, Total_Conts__c,
Sub_Total_USD__c, In_words__c, Fumigation__c, Discount__c,
Discount_Amount__c, Deposit_Percentage__c, Deposit__c, Total_Price_USD__c,
Created_Date__c
FROM Contract__c WHERE Id = '%s'`

const soqlContractProducts = `SELECT Line_number_For_print__c, Product_Discription__c, L_PI__c, W_PI__c, H_PI__c,
PCS_PI__c, m2__c, Crates_PI__c, m3__c, Tons__c, Cont__c,
Sales_Price__c, Charge_Unit__c, Total_Price_USD__c, Packing_PI__c,
Product__r.Name
FROM Contract_Product__c WHERE Contract__r.Id = '%s' ORDER BY Line_Number__c ASC`

const soqlContractSurcharges = `SELECT Id, Name, Surcharge_amount_USD__c
FROM Expense__c WHERE Contract_PI__r.Id = '%s' AND Surcharge_amount_USD__c != 0`

const soqlContractPO = `SELECT Id, Production_Order_Number__c, Name, CreatedDate, Port_of_Origin__c,
Port_of_Discharge__c, Stockyard__c, Total_Pcs_PO__c, Total_Crates__c,
Total_m2__c, Total_m3__c, Total_Tons__c, Total_Conts__c
FROM Contract__c WHERE Id = '%s'`

const soqlOrderProducts = `SELECT Id, Name, Charge_Unit__c, Cont__c, Crates__c, Height__c, Length__c, Quantity__c, Width__c, m2__c, m3__c, Packing__c, Tons__c, Product_Description__c, Delivery_Date__c, Line_number__c, SKU__c, Vietnamese_Description__c, Order__r.Name
FROM Order_Product__c WHERE Contract_PI__r.Id = '%s' ORDER BY Line_number__c ASC`

const soqlQuoteLines = `SELECT Id, Quote.Name, Quote.AccountId, Quote.Total_Crates__c, Quote.Total_m3__c,
Quote.Total_Tons__c, Quote.Total_Conts__c, Quote.Sub_Total_USD__c, Quote.Total_Price_USD__c,
Product_Name__c, Product_Description__c, Length__c, Width__c, Height__c, Quantity,
Crates__c, m2__c, m3__c, Tons__c, Cont__c, Packing__c, Unit_Price_USD__c, Total_Price_USD__c,
Quote_Line_Item_Number_Quote__c
FROM QuoteLineItem WHERE QuoteId = '%s'
ORDER BY Quote_Line_Item_Number_Quote__c ASC`

const soqlQuote = `SELECT Id, Name, AccountId FROM Quote WHERE Id = '%s'`
