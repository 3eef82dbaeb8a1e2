package core

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ItemSchemaKey is the registry key of the purchase item layout.
const ItemSchemaKey = "purchase_items"

const (
	msgQuantity = "Quantity must be a positive number"
	msgCost     = "Cost must be a non-negative number"
	msgLink     = "Invalid URL format"
)

// Default values applied to valid rows with empty optional cells.
const (
	DefaultUnits    = "pcs"
	DefaultCurrency = "USD"
)

// ItemFields are the recognised purchase item columns in template order.
var ItemFields = []FieldSpec{
	{Name: "itemName", Type: FieldText, Required: true, Aliases: []string{"name"}},
	{Name: "itemCode", Type: FieldText, Required: true, Aliases: []string{"partNumber", "code"}},
	{Name: "description", Type: FieldText},
	{Name: "quantity", Type: FieldNumber, Required: true, Positive: true, Message: msgQuantity, Aliases: []string{"qty"}},
	{Name: "units", Type: FieldText, Aliases: []string{"unit", "uom"}},
	{Name: "vendor", Type: FieldText, Aliases: []string{"supplier"}},
	{Name: "cost", Type: FieldNumber, Required: true, NonNegative: true, Message: msgCost, Aliases: []string{"unitCost", "price"}},
	{Name: "currency", Type: FieldText, Normalizer: strings.ToUpper},
	{Name: "alternatePart", Type: FieldText, Aliases: []string{"alternate"}},
	{Name: "link", Type: FieldURL, Message: msgLink, Aliases: []string{"url"}},
	{Name: "remarks", Type: FieldText, Aliases: []string{"notes"}},
}

func init() {
	RegisterSchema(ImportSchema{
		Key:    ItemSchemaKey,
		Label:  "Purchase items",
		Fields: ItemFields,
		Example: []string{
			"10K Resistor", "RC0805FR-0710KL", "10K Ohm 1% 1/8W", "100", "pcs", "DigiKey",
			"0.05", "USD", "RC0805FR-0710KL-ALT",
			"https://www.digikey.com/product-detail/en/yageo/RC0805FR-0710KL/311-10.0KCRCT-ND/730482",
			"Standard resistor",
		},
	})
}

// rawItem is a validated row before numeric coercion.
type rawItem struct {
	ItemName      string `mapstructure:"itemName"`
	ItemCode      string `mapstructure:"itemCode"`
	Description   string `mapstructure:"description"`
	Quantity      string `mapstructure:"quantity"`
	Units         string `mapstructure:"units"`
	Vendor        string `mapstructure:"vendor"`
	Cost          string `mapstructure:"cost"`
	Currency      string `mapstructure:"currency"`
	AlternatePart string `mapstructure:"alternatePart"`
	Link          string `mapstructure:"link"`
	Remarks       string `mapstructure:"remarks"`
}

// decodeItem turns a validated record into a typed item with defaults.
func decodeItem(rec Record) (PurchaseItem, error) {
	row := make(map[string]any, len(rec))
	for k, v := range rec {
		row[k] = v
	}

	var raw rawItem
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw,
		TagName:          "mapstructure",
	})
	if err != nil {
		return PurchaseItem{}, err
	}
	if err := dec.Decode(row); err != nil {
		return PurchaseItem{}, fmt.Errorf("decode item: %w", err)
	}
	return raw.item(), nil
}

func (r rawItem) item() PurchaseItem {
	qty, ok := ParseNumber(r.Quantity)
	if !ok || qty == 0 {
		qty = 1
	}
	cost, ok := ParseNumber(r.Cost)
	if !ok {
		cost = 0
	}

	return PurchaseItem{
		ItemName:      r.ItemName,
		ItemCode:      r.ItemCode,
		Description:   r.Description,
		Quantity:      qty,
		Units:         orDefault(r.Units, DefaultUnits),
		Vendor:        r.Vendor,
		Cost:          cost,
		Currency:      orDefault(r.Currency, DefaultCurrency),
		AlternatePart: r.AlternatePart,
		Link:          r.Link,
		Remarks:       r.Remarks,
	}
}

// ApplyItemDefaults fills empty units and currency and trims text fields of
// an item submitted through the API.
func ApplyItemDefaults(item PurchaseItem) PurchaseItem {
	item.ItemName = strings.TrimSpace(item.ItemName)
	item.ItemCode = strings.TrimSpace(item.ItemCode)
	item.Link = strings.TrimSpace(item.Link)
	item.Units = orDefault(strings.TrimSpace(item.Units), DefaultUnits)
	item.Currency = orDefault(strings.ToUpper(strings.TrimSpace(item.Currency)), DefaultCurrency)
	return item
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
