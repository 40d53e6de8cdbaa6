// Package catalog derives the stock choices offered to callers from a batch
// snapshot. An Index is immutable once built and is rebuilt on demand.
package catalog

import (
	"sort"
	"strings"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
)

type Entry struct {
	Key       model.SKUKey `json:"key"`
	Available int          `json:"available"`
}

// type -> variant -> color -> size -> quantity
type tree map[string]map[string]map[string]map[string]int

type Index struct {
	stock tree
}

// Build indexes every size entry of every batch. Entries with a blank type,
// variant, color or size are skipped since they can never be requested.
func Build(batches []model.Batch) *Index {
	stock := make(tree)
	for _, b := range batches {
		if blank(b.Type) {
			continue
		}
		for _, item := range b.Items {
			if blank(item.VariantType) || blank(item.Color) {
				continue
			}
			for _, sq := range item.Sizes {
				if blank(sq.Size) {
					continue
				}
				variants, ok := stock[b.Type]
				if !ok {
					variants = make(map[string]map[string]map[string]int)
					stock[b.Type] = variants
				}
				colors, ok := variants[item.VariantType]
				if !ok {
					colors = make(map[string]map[string]int)
					variants[item.VariantType] = colors
				}
				sizes, ok := colors[item.Color]
				if !ok {
					sizes = make(map[string]int)
					colors[item.Color] = sizes
				}
				qty := sq.Quantity
				if qty < 0 {
					qty = 0
				}
				sizes[sq.Size] += qty
			}
		}
	}
	return &Index{stock: stock}
}

func (ix *Index) Types() []string {
	return sortedKeys(ix.stock)
}

func (ix *Index) VariantsByType(typ string) []string {
	return sortedKeys(ix.stock[typ])
}

func (ix *Index) ColorsByTypeVariant(typ, variantType string) []string {
	return sortedKeys(ix.stock[typ][variantType])
}

func (ix *Index) SizesByTypeVariantColor(typ, variantType, color string) []string {
	return sortedKeys(ix.stock[typ][variantType][color])
}

// AvailableQuantity sums every matching size entry across batches. Unknown keys report 0.
func (ix *Index) AvailableQuantity(typ, variantType, color, size string) int {
	return ix.stock[typ][variantType][color][size]
}

// Available is AvailableQuantity for a composed key.
func (ix *Index) Available(key model.SKUKey) int {
	return ix.AvailableQuantity(key.Type, key.VariantType, key.Color, key.Size)
}

// Entries lists every known key with its quantity, ordered by key.
func (ix *Index) Entries() []Entry {
	var out []Entry
	for _, typ := range ix.Types() {
		for _, variant := range ix.VariantsByType(typ) {
			for _, color := range ix.ColorsByTypeVariant(typ, variant) {
				for _, size := range ix.SizesByTypeVariantColor(typ, variant, color) {
					key := model.SKUKey{Type: typ, VariantType: variant, Color: color, Size: size}
					out = append(out, Entry{Key: key, Available: ix.Available(key)})
				}
			}
		}
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
