// Package branch attributes a point-of-sale label to one of the fixed sales
// locations.
package branch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Category string

const (
	FeetCare     Category = "FEETCARE"
	Surco        Category = "SURCO"
	Unclassified Category = "UNCLASSIFIED"
)

// DefaultLabel stands in for orders that carry no point-of-sale reference.
const DefaultLabel = "Caja Central"

type rule struct {
	keyword  string
	category Category
}

// Evaluated top to bottom, first match wins. The secondary site keyword
// comes first so a reception desk at Surco is never counted at FeetCare too.
var rules = []rule{
	{keyword: "SURCO", category: Surco},
	{keyword: "FEETCARE", category: FeetCare},
	{keyword: "RECEPCION", category: FeetCare},
}

// Classify maps any label, including the empty one, to exactly one category.
// Accents are ignored, so "Recepción" matches RECEPCION.
func Classify(label string) Category {
	upper := strings.ToUpper(foldAccents(label))
	for _, r := range rules {
		if strings.Contains(upper, r.keyword) {
			return r.category
		}
	}
	return Unclassified
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Named lists the categories that get their own totals and sheets.
func Named() []Category {
	return []Category{FeetCare, Surco}
}

// All is Named plus Unclassified, which only feeds the global total.
func All() []Category {
	return []Category{FeetCare, Surco, Unclassified}
}

func (c Category) Title() string {
	switch c {
	case FeetCare:
		return "FeetCare"
	case Surco:
		return "Surco"
	default:
		return "Unclassified"
	}
}

// Parse accepts a category in any case; ok is false for unknown names.
func Parse(raw string) (Category, bool) {
	switch Category(strings.ToUpper(strings.TrimSpace(raw))) {
	case FeetCare:
		return FeetCare, true
	case Surco:
		return Surco, true
	case Unclassified:
		return Unclassified, true
	}
	return "", false
}
