package etl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bountydex/bountydex/bountydex/database/models"
)

// DefaultFoilType is the foil variant assumed when the vendor omits
// subTypeName. Together with product_id it forms the catalog's unique key.
const DefaultFoilType = "Normal"

// columnRenames maps vendor CSV headers onto canonical column names. Columns
// not listed here are ignored; canonical columns absent from the input are
// treated as null and resolved through the default policy below.
var columnRenames = map[string]string{
	"productId":      "product_id",
	"name":           "name",
	"imageUrl":       "image_url",
	"url":            "tcgplayer_url",
	"marketPrice":    "market_price",
	"subTypeName":    "foil_type",
	"extRarity":      "rarity",
	"extNumber":      "card_code",
	"extDescription": "description",
	"extColor":       "color",
	"extCardType":    "card_type",
	"extLife":        "life",
	"extPower":       "power",
	"extSubtypes":    "subtype",
	"extAttribute":   "attribute",
	"extCost":        "cost",
	"extCounterplus": "counter",
}

// nullSentinels are literal tokens the vendor emits for missing values.
// They are checked explicitly during parsing rather than relying on any
// library behavior.
var nullSentinels = []string{"nan", "NaN", "NaT", "NULL", "None"}

// The vendor separates entries in subtype and color fields with ";";
// canonical storage rewrites it to "/".
const (
	vendorDelimiter    = ";"
	canonicalDelimiter = "/"
)

// CardRecord is one normalized feed row in canonical shape. Pointer fields
// are columns with no declared default: nil means the source value was
// absent or unparseable, which is stored as true null, never as zero.
type CardRecord struct {
	ProductID    int64
	FoilType     string
	Name         string
	ImageURL     *string
	TCGPlayerURL *string
	MarketPrice  float64
	Rarity       *string
	CardCode     *string
	Description  *string
	Color        *string
	CardType     *string
	Life         *int64
	Power        *int64
	Subtype      *string
	Attribute    *string
	Cost         *int64
	Counter      *int64
}

// Key returns the record's catalog identity.
func (r CardRecord) Key() models.CardKey {
	return models.CardKey{ProductID: r.ProductID, FoilType: r.FoilType}
}

// ToModel builds a catalog row from the record, stamped with the run date.
func (r CardRecord) ToModel(runDate time.Time) *models.Card {
	return &models.Card{
		ProductID:    r.ProductID,
		FoilType:     r.FoilType,
		Name:         r.Name,
		ImageURL:     r.ImageURL,
		TCGPlayerURL: r.TCGPlayerURL,
		MarketPrice:  r.MarketPrice,
		Rarity:       r.Rarity,
		CardCode:     r.CardCode,
		Description:  r.Description,
		Color:        r.Color,
		CardType:     r.CardType,
		Life:         r.Life,
		Power:        r.Power,
		Subtype:      r.Subtype,
		Attribute:    r.Attribute,
		Cost:         r.Cost,
		Counter:      r.Counter,
		LastUpdate:   runDate,
	}
}

// RowError reports a row that cannot be repaired by defaulting.
type RowError struct {
	Field string
	Value string
	Cause error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row field %q: unusable value %q: %v", e.Field, e.Value, e.Cause)
}

func (e *RowError) Unwrap() error {
	return e.Cause
}

// isNull reports whether a raw value is one of the vendor's null encodings.
func isNull(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	for _, sentinel := range nullSentinels {
		if s == sentinel {
			return true
		}
	}
	return false
}

// ParseRow turns one raw field mapping (already renamed to canonical keys)
// into a CardRecord.
//
// Coercion policy: columns with a declared default (foil_type, name,
// market_price) substitute the default for null or unparseable values.
// Numeric columns without one (life, power, cost, counter) resolve to null
// instead, keeping "value unknown" distinct from "value is zero". Only an
// unusable product_id fails the row, since without its key the row cannot be
// reconciled.
func ParseRow(raw map[string]string) (CardRecord, error) {
	productRaw, ok := raw["product_id"]
	if !ok || isNull(productRaw) {
		return CardRecord{}, &RowError{Field: "product_id", Value: productRaw, Cause: fmt.Errorf("missing key column")}
	}
	productID, err := parseInt(productRaw)
	if err != nil {
		return CardRecord{}, &RowError{Field: "product_id", Value: productRaw, Cause: err}
	}

	rec := CardRecord{
		ProductID:    productID,
		FoilType:     stringOrDefault(raw["foil_type"], DefaultFoilType),
		Name:         stringOrDefault(raw["name"], ""),
		ImageURL:     optionalString(raw["image_url"]),
		TCGPlayerURL: optionalString(raw["tcgplayer_url"]),
		MarketPrice:  floatOrDefault(raw["market_price"], 0.0),
		Rarity:       optionalString(raw["rarity"]),
		CardCode:     optionalString(raw["card_code"]),
		Description:  optionalString(raw["description"]),
		Color:        optionalMultiValue(raw["color"]),
		CardType:     optionalString(raw["card_type"]),
		Life:         optionalInt(raw["life"]),
		Power:        optionalInt(raw["power"]),
		Subtype:      optionalMultiValue(raw["subtype"]),
		Attribute:    optionalString(raw["attribute"]),
		Cost:         optionalInt(raw["cost"]),
		Counter:      optionalInt(raw["counter"]),
	}
	return rec, nil
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	// Vendors occasionally serialize integer columns as floats ("123.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func stringOrDefault(s, def string) string {
	if isNull(s) {
		return def
	}
	return strings.TrimSpace(s)
}

func optionalString(s string) *string {
	if isNull(s) {
		return nil
	}
	trimmed := strings.TrimSpace(s)
	return &trimmed
}

func optionalMultiValue(s string) *string {
	if isNull(s) {
		return nil
	}
	rewritten := strings.ReplaceAll(strings.TrimSpace(s), vendorDelimiter, canonicalDelimiter)
	return &rewritten
}

func optionalInt(s string) *int64 {
	if isNull(s) {
		return nil
	}
	v, err := parseInt(s)
	if err != nil {
		return nil
	}
	return &v
}

func floatOrDefault(s string, def float64) float64 {
	if isNull(s) {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return roundPrice(v)
}

// roundPrice normalizes prices to two fractional digits.
func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}
