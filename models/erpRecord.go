package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Uncategorized is the category of products the ERP files under nothing, and
// of products the cost map has never seen.
const Uncategorized = "uncategorized"

type refKind uint8

const (
	refNone refKind = iota
	refID
	refIDWithLabel
)

// RelatedRef is a many2one value as the ERP sends it: `false`, a bare id, or
// an `[id, "display name"]` pair.
type RelatedRef struct {
	kind  refKind
	id    int64
	label string
}

func RefID(id int64) RelatedRef {
	return RelatedRef{kind: refID, id: id}
}

func RefIDWithLabel(id int64, label string) RelatedRef {
	return RelatedRef{kind: refIDWithLabel, id: id, label: label}
}

func (r RelatedRef) Valid() bool {
	return r.kind != refNone
}

// ID returns 0 for an empty reference.
func (r RelatedRef) ID() int64 {
	return r.id
}

// LabelOr returns the display name, or def when the reference has none.
func (r RelatedRef) LabelOr(def string) string {
	if r.kind == refIDWithLabel && r.label != "" {
		return r.label
	}
	return def
}

func (r *RelatedRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("false")), bytes.Equal(b, []byte("null")):
		*r = RelatedRef{}
		return nil
	case len(b) > 0 && b[0] == '[':
		var pair []json.RawMessage
		if err := json.Unmarshal(b, &pair); err != nil {
			return err
		}
		if len(pair) == 0 {
			*r = RelatedRef{}
			return nil
		}
		var id int64
		if err := json.Unmarshal(pair[0], &id); err != nil {
			return fmt.Errorf("related id: %w", err)
		}
		var label string
		if len(pair) > 1 {
			// a label of `false` leaves it empty
			_ = json.Unmarshal(pair[1], &label)
		}
		*r = RefIDWithLabel(id, label)
		return nil
	default:
		var id int64
		if err := json.Unmarshal(b, &id); err != nil {
			return fmt.Errorf("related id: %w", err)
		}
		*r = RefID(id)
		return nil
	}
}

func (r RelatedRef) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case refID:
		return json.Marshal(r.id)
	case refIDWithLabel:
		return json.Marshal([]any{r.id, r.label})
	default:
		return []byte("false"), nil
	}
}

// Amount is a decimal that reads the ERP's `false` placeholder as zero.
type Amount struct {
	decimal.Decimal
}

func NewAmount(v float64) Amount {
	return Amount{decimal.NewFromFloat(v)}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("false")) || bytes.Equal(b, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	return a.Decimal.UnmarshalJSON(b)
}

// RawOrder is a pos.order row.
type RawOrder struct {
	ID          int64      `json:"id"`
	DateOrder   string     `json:"date_order"`
	Config      RelatedRef `json:"config_id"`
	LineIDs     []int64    `json:"lines"`
	User        RelatedRef `json:"user_id"`
	AmountTotal Amount     `json:"amount_total"`
}

// RawLine is a pos.order.line row. Subtotal excludes tax, SubtotalIncl
// includes it.
type RawLine struct {
	ID           int64      `json:"id"`
	Product      RelatedRef `json:"product_id"`
	Qty          Amount     `json:"qty"`
	Subtotal     Amount     `json:"price_subtotal"`
	SubtotalIncl Amount     `json:"price_subtotal_incl"`
	Order        RelatedRef `json:"order_id"`
}

// RawProduct is a product.product row, the sellable variant.
type RawProduct struct {
	ID            int64      `json:"id"`
	StandardPrice Amount     `json:"standard_price"`
	Category      RelatedRef `json:"categ_id"`
	Template      RelatedRef `json:"product_tmpl_id"`
}

// RawTemplate is a product.template row, only read for its cost.
type RawTemplate struct {
	ID            int64  `json:"id"`
	StandardPrice Amount `json:"standard_price"`
}

var (
	OrderFields    = []string{"date_order", "config_id", "lines", "amount_total", "user_id"}
	LineFields     = []string{"product_id", "qty", "price_subtotal", "price_subtotal_incl", "order_id"}
	ProductFields  = []string{"standard_price", "categ_id", "product_tmpl_id"}
	TemplateFields = []string{"standard_price"}
)
