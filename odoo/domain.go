package odoo

import "encoding/json"

// Criterion is one ERP search leaf, encoded as [field, operator, value].
type Criterion struct {
	Field string
	Op    string
	Value any
}

func (c Criterion) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Field, c.Op, c.Value})
}

// Domain is an implicitly AND-ed list of criteria.
type Domain []Criterion

func Where(field string, op string, value any) Criterion {
	return Criterion{Field: field, Op: op, Value: value}
}

// And returns a copy of d with extra criteria appended.
func (d Domain) And(extra ...Criterion) Domain {
	out := make(Domain, 0, len(d)+len(extra))
	out = append(out, d...)
	return append(out, extra...)
}

// Options are the keyword arguments of search_read besides fields.
type Options struct {
	Order   string
	Limit   int
	Context map[string]any
}

func (o Options) kwargs(fields []string) map[string]any {
	kw := map[string]any{}
	if len(fields) > 0 {
		kw["fields"] = fields
	}
	if o.Order != "" {
		kw["order"] = o.Order
	}
	if o.Limit > 0 {
		kw["limit"] = o.Limit
	}
	if len(o.Context) > 0 {
		kw["context"] = o.Context
	}
	return kw
}
