// Package costing resolves the unit cost of every product sold in a fetch.
package costing

import (
	"context"
	"fmt"
	"sort"

	"github.com/gaorsystempe-cpu/operacionesFeet/models"
	"github.com/shopspring/decimal"
)

// ProductSource is the part of the ERP the resolver reads from.
type ProductSource interface {
	Products(ctx context.Context, ids []int64) ([]models.RawProduct, error)
	Templates(ctx context.Context, ids []int64) ([]models.RawTemplate, error)
}

// Strategy yields a cost for a product when it can.
type Strategy interface {
	Name() string
	Cost(p models.RawProduct, templates map[int64]models.RawTemplate) (decimal.Decimal, bool)
}

type variantCost struct{}

func (variantCost) Name() string { return "variant" }

func (variantCost) Cost(p models.RawProduct, _ map[int64]models.RawTemplate) (decimal.Decimal, bool) {
	if p.StandardPrice.IsZero() {
		return decimal.Zero, false
	}
	return p.StandardPrice.Decimal, true
}

type templateCost struct{}

func (templateCost) Name() string { return "template" }

func (templateCost) Cost(p models.RawProduct, templates map[int64]models.RawTemplate) (decimal.Decimal, bool) {
	if !p.Template.Valid() {
		return decimal.Zero, false
	}
	tmpl, ok := templates[p.Template.ID()]
	if !ok || tmpl.StandardPrice.IsZero() {
		return decimal.Zero, false
	}
	return tmpl.StandardPrice.Decimal, true
}

type zeroDefault struct{}

func (zeroDefault) Name() string { return "zero" }

func (zeroDefault) Cost(models.RawProduct, map[int64]models.RawTemplate) (decimal.Decimal, bool) {
	return decimal.Zero, true
}

var (
	VariantCost  Strategy = variantCost{}
	TemplateCost Strategy = templateCost{}
	ZeroDefault  Strategy = zeroDefault{}
)

// DefaultChain is tried in order; ZeroDefault always answers.
var DefaultChain = []Strategy{VariantCost, TemplateCost, ZeroDefault}

// Resolve builds the cost map for every product referenced by lines. The
// template query only happens when some product has no cost of its own, and
// only for those products' templates. A failed query fails the whole map.
func Resolve(ctx context.Context, lines []models.RawLine, src ProductSource) (models.ResolvedCost, error) {
	return ResolveWith(ctx, lines, src, DefaultChain)
}

func ResolveWith(ctx context.Context, lines []models.RawLine, src ProductSource, chain []Strategy) (models.ResolvedCost, error) {
	productIDs := uniqueIDs(len(lines), func(yield func(int64)) {
		for _, l := range lines {
			if l.Product.Valid() {
				yield(l.Product.ID())
			}
		}
	})
	resolved := make(models.ResolvedCost, len(productIDs))
	if len(productIDs) == 0 {
		return resolved, nil
	}

	products, err := src.Products(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	retry := uniqueIDs(len(products), func(yield func(int64)) {
		for _, p := range products {
			if p.StandardPrice.IsZero() && p.Template.Valid() {
				yield(p.Template.ID())
			}
		}
	})
	templates := map[int64]models.RawTemplate{}
	if len(retry) > 0 {
		rows, err := src.Templates(ctx, retry)
		if err != nil {
			return nil, fmt.Errorf("fetch templates: %w", err)
		}
		for _, t := range rows {
			templates[t.ID] = t
		}
	}

	for _, p := range products {
		resolved[p.ID] = models.UnitCost{
			Cost:     costFromChain(chain, p, templates),
			Category: p.Category.LabelOr(models.Uncategorized),
		}
	}
	for _, id := range productIDs {
		if _, ok := resolved[id]; !ok {
			resolved[id] = models.UnitCost{Cost: decimal.Zero, Category: models.Uncategorized}
		}
	}
	return resolved, nil
}

func costFromChain(chain []Strategy, p models.RawProduct, templates map[int64]models.RawTemplate) decimal.Decimal {
	for _, s := range chain {
		if cost, ok := s.Cost(p, templates); ok {
			if cost.IsNegative() {
				return decimal.Zero
			}
			return cost
		}
	}
	return decimal.Zero
}

func uniqueIDs(hint int, each func(yield func(int64))) []int64 {
	seen := make(map[int64]struct{}, hint)
	out := make([]int64, 0, hint)
	each(func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
