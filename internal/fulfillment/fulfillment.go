// Package fulfillment tracks, per student, which required uniform items have
// been handed out and in what quantity. Maps are keyed by requirement item id.
package fulfillment

import (
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/requirement"
)

type Fulfillment struct {
	Status     map[string]model.FulfillmentStatus `json:"uniformStatus"`
	Quantities map[string]int                     `json:"uniformQuantities"`
}

func newFulfillment() Fulfillment {
	return Fulfillment{
		Status:     make(map[string]model.FulfillmentStatus),
		Quantities: make(map[string]int),
	}
}

// Of copies a student's fulfillment maps.
func Of(s model.Student) Fulfillment {
	f := newFulfillment()
	for k, v := range s.UniformStatus {
		f.Status[k] = v
	}
	for k, v := range s.UniformQuantities {
		f.Quantities[k] = v
	}
	return f
}

// Apply stores f on the student.
func (f Fulfillment) Apply(s *model.Student) {
	s.UniformStatus = f.Status
	s.UniformQuantities = f.Quantities
}

// InitializeForLevel seeds every item of both genders at level as pending
// with the per-student quantity. Earlier values are discarded.
func InitializeForLevel(tree model.RequirementTree, level model.Level) Fulfillment {
	f := newFulfillment()
	for _, gender := range model.Genders {
		for _, item := range tree.Items(level, gender) {
			f.Status[item.ID] = model.StatusPending
			f.Quantities[item.ID] = max(1, item.QuantityPerStudent)
		}
	}
	return f
}

func SetStatus(f Fulfillment, itemID string, status model.FulfillmentStatus) (Fulfillment, error) {
	if !status.Valid() {
		return f, &model.ValidationError{Field: "status", Reason: "must be one of pending, ordered, completed"}
	}
	if !f.has(itemID) {
		return f, unknownItem(itemID)
	}
	out := f.clone()
	out.Status[itemID] = status
	return out, nil
}

// AdjustQuantity adds delta to the item's quantity, never going below 1.
func AdjustQuantity(f Fulfillment, itemID string, delta int) (Fulfillment, error) {
	if !f.has(itemID) {
		return f, unknownItem(itemID)
	}
	out := f.clone()
	out.Quantities[itemID] = max(1, out.Quantities[itemID]+delta)
	return out, nil
}

// MigrateLegacyKeys rewrites "{GENDER}-{index}" keys to the id of the item at
// that position in the level's list. Keys that name no current item are dropped.
// When both a legacy key and the id key exist the id key wins.
func MigrateLegacyKeys(tree model.RequirementTree, level model.Level, f Fulfillment) Fulfillment {
	current := make(map[string]bool)
	for _, id := range requirement.ItemIDs(tree, level) {
		current[id] = true
	}

	out := newFulfillment()
	for key, st := range f.Status {
		if current[key] {
			out.Status[key] = st
		}
	}
	for key, q := range f.Quantities {
		if current[key] {
			out.Quantities[key] = q
		}
	}

	for key, st := range f.Status {
		if id, ok := legacyTarget(tree, level, key); ok {
			if _, exists := out.Status[id]; !exists {
				out.Status[id] = st
			}
		}
	}
	for key, q := range f.Quantities {
		if id, ok := legacyTarget(tree, level, key); ok {
			if _, exists := out.Quantities[id]; !exists {
				out.Quantities[id] = q
			}
		}
	}
	return out
}

// Reconcile aligns f with the level's current items: new items are seeded as
// pending, removed items are dropped, everything else is kept.
func Reconcile(tree model.RequirementTree, level model.Level, f Fulfillment) Fulfillment {
	seed := InitializeForLevel(tree, level)
	for id := range seed.Status {
		if st, ok := f.Status[id]; ok && st.Valid() {
			seed.Status[id] = st
		}
		if q, ok := f.Quantities[id]; ok {
			seed.Quantities[id] = max(1, q)
		}
	}
	return seed
}

// HasLegacyKeys reports whether any key still uses the "{GENDER}-{index}" form.
func HasLegacyKeys(f Fulfillment) bool {
	for key := range f.Status {
		if _, _, ok := parseLegacyKey(key); ok {
			return true
		}
	}
	for key := range f.Quantities {
		if _, _, ok := parseLegacyKey(key); ok {
			return true
		}
	}
	return false
}

func legacyTarget(tree model.RequirementTree, level model.Level, key string) (string, bool) {
	gender, index, ok := parseLegacyKey(key)
	if !ok {
		return "", false
	}
	items := tree.Items(level, gender)
	if index < 0 || index >= len(items) {
		return "", false
	}
	return items[index].ID, true
}

func parseLegacyKey(key string) (model.Gender, int, bool) {
	prefix, suffix, found := strings.Cut(key, "-")
	if !found {
		return "", 0, false
	}
	gender, err := requirement.ParseGender(prefix)
	if err != nil {
		return "", 0, false
	}
	index, err := strconv.Atoi(suffix)
	if err != nil {
		return "", 0, false
	}
	return gender, index, true
}

func (f Fulfillment) has(itemID string) bool {
	if _, ok := f.Status[itemID]; ok {
		return true
	}
	_, ok := f.Quantities[itemID]
	return ok
}

func (f Fulfillment) clone() Fulfillment {
	out := newFulfillment()
	for k, v := range f.Status {
		out.Status[k] = v
	}
	for k, v := range f.Quantities {
		out.Quantities[k] = v
	}
	return out
}

func unknownItem(itemID string) error {
	return &model.ValidationError{Field: "itemId", Reason: "no requirement item " + strconv.Quote(itemID) + " for this student"}
}
