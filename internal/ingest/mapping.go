package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ledgerly-backend/review/model"
)

// extraction is the wire shape providers return. Amounts travel as decimal
// strings and dates as YYYY-MM-DD so the model never has to reason about
// integer cents.
type extraction struct {
	DocType               string           `json:"docType"`
	Number                string           `json:"number"`
	RelatedInvoiceNumber  string           `json:"relatedInvoiceNumber"`
	IssueDate             string           `json:"issueDate"`
	DueDate               string           `json:"dueDate"`
	PurchaseDate          string           `json:"purchaseDate"`
	Currency              string           `json:"currency"`
	NetAmount             string           `json:"netAmount"`
	VATAmount             string           `json:"vatAmount"`
	GrossAmount           string           `json:"grossAmount"`
	CounterpartyName      string           `json:"counterpartyName"`
	CounterpartyVATNumber string           `json:"counterpartyVatNumber"`
	CounterpartyIBAN      string           `json:"counterpartyIban"`
	LineItems             []extractionItem `json:"lineItems"`
}

type extractionItem struct {
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      string  `json:"unitPrice"`
	VATRatePercent float64 `json:"vatRatePercent"`
	Total          string  `json:"total"`
}

func decodeExtraction(raw json.RawMessage) (extraction, error) {
	var ext extraction
	if err := json.Unmarshal(raw, &ext); err != nil {
		return extraction{}, fmt.Errorf("%w: decode extraction: %v", errProvider, err)
	}
	return ext, nil
}

// mapExtraction converts a provider payload into the typed draft data plus
// a confidence score: the share of the type's required fields the provider
// managed to fill. Unknown document types map to an empty payload at zero
// confidence.
func mapExtraction(ext extraction) (model.Editable, float64) {
	docType := model.ParseDocType(ext.DocType)
	data := model.EmptyFor(docType)
	if docType == model.DocTypeUnknown {
		return data, 0
	}

	for _, f := range model.FieldsFor(docType) {
		v, ok := extractedValue(ext, f)
		if !ok {
			continue
		}
		next, err := data.Set(f, v)
		if err != nil {
			continue
		}
		data = next
	}

	for _, item := range ext.LineItems {
		unitCents, _ := parseMoneyCents(item.UnitPrice)
		totalCents, _ := parseMoneyCents(item.Total)
		if strings.TrimSpace(item.Description) == "" && totalCents == 0 {
			continue
		}
		data = data.AppendLineItem(model.LineItem{
			Description:    strings.TrimSpace(item.Description),
			Quantity:       item.Quantity,
			UnitPriceCents: unitCents,
			VATRatePercent: item.VATRatePercent,
			TotalCents:     totalCents,
		})
	}

	return data, completeness(data)
}

// extractedValue pulls the wire field backing a draft field, reporting false
// when the provider left it empty or unparseable.
func extractedValue(ext extraction, f model.Field) (model.Value, bool) {
	switch f {
	case model.FieldInvoiceNumber, model.FieldBillNumber, model.FieldReceiptNumber, model.FieldCreditNoteNumber:
		return textValue(ext.Number)
	case model.FieldRelatedInvoiceNumber:
		return textValue(ext.RelatedInvoiceNumber)
	case model.FieldIssueDate:
		return dateValue(ext.IssueDate)
	case model.FieldDueDate:
		return dateValue(ext.DueDate)
	case model.FieldPurchaseDate:
		// Receipts sometimes print only one date; fall back to the
		// issue date slot when the purchase date is missing.
		if v, ok := dateValue(ext.PurchaseDate); ok {
			return v, true
		}
		return dateValue(ext.IssueDate)
	case model.FieldCurrency:
		return currencyValue(ext.Currency)
	case model.FieldNetAmount:
		return moneyValue(ext.NetAmount)
	case model.FieldVATAmount:
		return moneyValue(ext.VATAmount)
	case model.FieldGrossAmount:
		return moneyValue(ext.GrossAmount)
	}
	return model.Value{}, false
}

func textValue(s string) (model.Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Value{}, false
	}
	return model.Text(s), true
}

func currencyValue(s string) (model.Value, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return model.Value{}, false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return model.Value{}, false
		}
	}
	return model.Text(s), true
}

func dateValue(s string) (model.Value, bool) {
	d, ok := parseDate(s)
	if !ok {
		return model.Value{}, false
	}
	return model.DateValue(d), true
}

func moneyValue(s string) (model.Value, bool) {
	cents, ok := parseMoneyCents(s)
	if !ok {
		return model.Value{}, false
	}
	return model.Money(cents), true
}

// dateLayouts are fallbacks for providers that ignore the YYYY-MM-DD
// instruction.
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"January 2, 2006",
	"2 January 2006",
}

func parseDate(s string) (model.Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, false
	}
	if d, err := model.ParseDate(s); err == nil {
		return d, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), true
		}
	}
	return model.Date{}, false
}

// parseMoneyCents reads a decimal amount into integer cents. It tolerates
// currency symbols, thousands separators and both comma and point decimals:
// "1.234,56", "1,234.56" and "€ 1234.56" all come out as 123456.
func parseMoneyCents(raw string) (int64, bool) {
	neg := false
	cleaned := make([]rune, 0, len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			cleaned = append(cleaned, r)
		case r == '-':
			neg = true
		}
	}
	if len(cleaned) == 0 {
		return 0, false
	}

	s := string(cleaned)
	intPart, fracPart := s, ""
	if sep := strings.LastIndexAny(s, ".,"); sep >= 0 {
		// A trailing group of one or two digits is a decimal fraction;
		// three digits means a thousands separator.
		if frac := s[sep+1:]; len(frac) <= 2 {
			intPart, fracPart = s[:sep], frac
		}
	}

	intPart = strings.Map(dropSeparators, intPart)
	if intPart == "" {
		intPart = "0"
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, false
	}

	cents := whole*100 + frac
	if neg {
		cents = -cents
	}
	return cents, true
}

func dropSeparators(r rune) rune {
	if r == '.' || r == ',' {
		return -1
	}
	return r
}

// completeness is the share of required fields filled in, the confidence
// proxy recorded on the run and the draft.
func completeness(data model.Editable) float64 {
	required := model.RequiredFields(data.DocType)
	if len(required) == 0 {
		return 0
	}
	present := 0
	for _, f := range required {
		v, ok := data.Get(f)
		if ok && filled(v) {
			present++
		}
	}
	return float64(present) / float64(len(required))
}

func filled(v model.Value) bool {
	switch v.Kind() {
	case model.KindText:
		return strings.TrimSpace(v.Text()) != ""
	case model.KindDate:
		return !v.Date().IsZero()
	case model.KindMoney:
		return v.Money() != 0
	}
	return false
}
