package services

import (
	"strings"

	"github.com/shopspring/decimal"

	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
)

var hundred = decimal.NewFromInt(100)

// ProformaLine is one billed test. Amount is always Quantity x Rate.
type ProformaLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

type ProformaBuyer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	GSTIN   string `json:"gstin"`
	PAN     string `json:"pan"`
}

type ProformaInput struct {
	Items []ProformaLine  `json:"items"`
	SGST  decimal.Decimal `json:"sgst"`
	CGST  decimal.Decimal `json:"cgst"`
	Buyer ProformaBuyer   `json:"buyer"`
	Mode  string          `json:"mode"`
	HSN   string          `json:"hsn"`

	Destination        string `json:"destination"`
	DispatchedThrough  string `json:"dispatched_through"`
	DeliveryNote       string `json:"delivery_note"`
	DeliveryNoteDate   string `json:"delivery_note_date"`
	DispatchDocumentNo string `json:"dispatch_document_no"`
	BuyerOrderNo       string `json:"buyer_order_no"`
	Dated              string `json:"dated"`
	SupplierRef        string `json:"supplier_ref"`
	OtherReferences    string `json:"other_references"`
}

// ProformaTotals is the computed invoice. Final is the unrounded grand total;
// Payable is Final rounded to whole rupees and Rounding the difference.
type ProformaTotals struct {
	Amounts    []decimal.Decimal
	Total      decimal.Decimal
	SGSTAmount decimal.Decimal
	CGSTAmount decimal.Decimal
	TotalTax   decimal.Decimal
	Final      decimal.Decimal
	Payable    decimal.Decimal
	Rounding   decimal.Decimal
}

func (in ProformaInput) Validate(op string) error {
	if len(in.Items) == 0 {
		return domainagg.Validation(op, "at least one item is required")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.Description) == "" {
			return domainagg.Validation(op, "item %d: description is required", i+1)
		}
		if !it.Quantity.IsPositive() {
			return domainagg.Validation(op, "item %d: quantity must be positive", i+1)
		}
		if it.Rate.IsNegative() {
			return domainagg.Validation(op, "item %d: rate must not be negative", i+1)
		}
	}
	if !percent(in.SGST) {
		return domainagg.Validation(op, "sgst must be between 0 and 100")
	}
	if !percent(in.CGST) {
		return domainagg.Validation(op, "cgst must be between 0 and 100")
	}
	return nil
}

func ComputeProforma(items []ProformaLine, sgst, cgst decimal.Decimal) ProformaTotals {
	var t ProformaTotals
	for _, it := range items {
		amt := it.Quantity.Mul(it.Rate)
		t.Amounts = append(t.Amounts, amt)
		t.Total = t.Total.Add(amt)
	}
	t.SGSTAmount = t.Total.Mul(sgst).Div(hundred)
	t.CGSTAmount = t.Total.Mul(cgst).Div(hundred)
	t.TotalTax = t.SGSTAmount.Add(t.CGSTAmount)
	t.Final = t.Total.Add(t.TotalTax)
	t.Payable = t.Final.Round(0)
	t.Rounding = t.Payable.Sub(t.Final)
	return t
}

func percent(d decimal.Decimal) bool { return !d.IsNegative() && !d.GreaterThan(hundred) }

func money(d decimal.Decimal) string { return d.StringFixed(2) }
