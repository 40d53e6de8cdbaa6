// Package requirement keeps per-school uniform requirement trees structurally
// valid. Every operation returns a new tree and leaves its input untouched.
package requirement

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/google/uuid"
)

// NameLookup resolves a uniform id to its display name.
type NameLookup func(uniformID string) (string, bool)

// ItemPatch holds the fields UpdateItem overwrites; nil fields are kept.
type ItemPatch struct {
	UniformID          *string `json:"uniformId,omitempty"`
	Item               *string `json:"item,omitempty"`
	QuantityPerStudent *int    `json:"quantityPerStudent,omitempty"`
	Required           *bool   `json:"required,omitempty"`
}

func ParseLevel(s string) (model.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "JUNIOR":
		return model.LevelJunior, nil
	case "SENIOR":
		return model.LevelSenior, nil
	}
	return "", &model.ValidationError{Field: "level", Reason: fmt.Sprintf("unknown level %q", s)}
}

func ParseGender(s string) (model.Gender, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BOYS", "BOY", "MALE":
		return model.GenderBoys, nil
	case "GIRLS", "GIRL", "FEMALE":
		return model.GenderGirls, nil
	}
	return "", &model.ValidationError{Field: "gender", Reason: fmt.Sprintf("unknown gender %q", s)}
}

// GenderOf maps a student's gender onto the requirement list that applies to them.
func GenderOf(g model.StudentGender) (model.Gender, error) {
	return ParseGender(string(g))
}

// Normalize coerces raw into a complete tree. raw may be a RequirementTree,
// its json encoding, any value that marshals to a json object, or nil. Unknown level and gender
// keys are dropped, list values that are not arrays become empty, quantities
// are coerced to at least 1 and items default to required. Items without an
// id get one, so normalizing twice yields the same tree.
func Normalize(raw interface{}) model.RequirementTree {
	var obj map[string]interface{}
	switch v := raw.(type) {
	case nil:
	case []byte:
		obj = decodeObject(v)
	case json.RawMessage:
		obj = decodeObject(v)
	case string:
		obj = decodeObject([]byte(v))
	default:
		data, err := json.Marshal(v)
		if err == nil {
			obj = decodeObject(data)
		}
	}

	var tree model.RequirementTree
	for _, level := range model.Levels {
		for _, gender := range model.Genders {
			tree.SetItems(level, gender, nil)
		}
	}

	for _, levelKey := range sortedKeys(obj) {
		level, err := ParseLevel(levelKey)
		if err != nil {
			continue
		}
		genders, ok := obj[levelKey].(map[string]interface{})
		if !ok {
			continue
		}
		for _, genderKey := range sortedKeys(genders) {
			gender, err := ParseGender(genderKey)
			if err != nil {
				continue
			}
			list, ok := genders[genderKey].([]interface{})
			if !ok {
				continue
			}
			items := tree.Items(level, gender)
			for _, entry := range list {
				if m, ok := entry.(map[string]interface{}); ok {
					items = append(items, normalizeItem(m))
				}
			}
			tree.SetItems(level, gender, items)
		}
	}
	return tree
}

func decodeObject(data []byte) map[string]interface{} {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	return obj
}

func normalizeItem(m map[string]interface{}) model.RequirementItem {
	item := model.RequirementItem{
		ID:                 stringValue(m["id"]),
		UniformID:          stringValue(m["uniformId"]),
		Item:               stringValue(m["item"]),
		QuantityPerStudent: quantityValue(m["quantityPerStudent"]),
		Required:           true,
	}
	if b, ok := m["required"].(bool); ok && !b {
		item.Required = false
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	return item
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

// quantityValue reads a leading integer from numbers and numeric strings,
// falling back to 1 when nothing usable is found.
func quantityValue(v interface{}) int {
	n := 0
	switch q := v.(type) {
	case float64:
		if !math.IsNaN(q) && !math.IsInf(q, 0) {
			n = int(q)
		}
	case string:
		n = leadingInt(q)
	}
	return max(1, n)
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddItem appends item to the level/gender list. The display name is taken
// from lookup when it knows the uniform.
func AddItem(tree model.RequirementTree, level, gender string, item model.RequirementItem, lookup NameLookup) (model.RequirementTree, error) {
	lv, gd, err := parsePair(level, gender)
	if err != nil {
		return tree, err
	}
	item.UniformID = strings.TrimSpace(item.UniformID)
	if item.UniformID == "" {
		return tree, &model.ValidationError{Field: "uniformId", Reason: "must not be empty"}
	}
	if item.QuantityPerStudent <= 0 {
		return tree, &model.ValidationError{Field: "quantityPerStudent", Reason: "must be at least 1"}
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if lookup != nil {
		if name, ok := lookup(item.UniformID); ok {
			item.Item = name
		}
	}

	out := tree.Clone()
	out.SetItems(lv, gd, append(out.Items(lv, gd), item))
	return out, nil
}

// RemoveItem drops the item at index; later items shift down.
func RemoveItem(tree model.RequirementTree, level, gender string, index int) (model.RequirementTree, error) {
	lv, gd, err := parsePair(level, gender)
	if err != nil {
		return tree, err
	}
	items := tree.Items(lv, gd)
	if index < 0 || index >= len(items) {
		return tree, &model.IndexOutOfRangeError{Level: lv, Gender: gd, Index: index, Length: len(items)}
	}

	out := tree.Clone()
	kept := make([]model.RequirementItem, 0, len(items)-1)
	kept = append(kept, items[:index]...)
	kept = append(kept, items[index+1:]...)
	out.SetItems(lv, gd, kept)
	return out, nil
}

// UpdateItem merges patch into the item at index. Changing the uniform
// re-derives the display name so it never describes the previous uniform.
func UpdateItem(tree model.RequirementTree, level, gender string, index int, patch ItemPatch, lookup NameLookup) (model.RequirementTree, error) {
	lv, gd, err := parsePair(level, gender)
	if err != nil {
		return tree, err
	}
	items := tree.Items(lv, gd)
	if index < 0 || index >= len(items) {
		return tree, &model.IndexOutOfRangeError{Level: lv, Gender: gd, Index: index, Length: len(items)}
	}

	item := items[index]
	if patch.QuantityPerStudent != nil {
		if *patch.QuantityPerStudent <= 0 {
			return tree, &model.ValidationError{Field: "quantityPerStudent", Reason: "must be at least 1"}
		}
		item.QuantityPerStudent = *patch.QuantityPerStudent
	}
	if patch.Required != nil {
		item.Required = *patch.Required
	}
	if patch.Item != nil {
		item.Item = *patch.Item
	}
	if patch.UniformID != nil {
		uid := strings.TrimSpace(*patch.UniformID)
		if uid == "" {
			return tree, &model.ValidationError{Field: "uniformId", Reason: "must not be empty"}
		}
		if uid != item.UniformID {
			item.UniformID = uid
			switch name, ok := lookupName(lookup, uid); {
			case ok:
				item.Item = name
			case patch.Item == nil:
				item.Item = uid
			}
		}
	}

	out := tree.Clone()
	updated := out.Items(lv, gd)
	updated[index] = item
	out.SetItems(lv, gd, updated)
	return out, nil
}

func lookupName(lookup NameLookup, uniformID string) (string, bool) {
	if lookup == nil {
		return "", false
	}
	return lookup(uniformID)
}

func parsePair(level, gender string) (model.Level, model.Gender, error) {
	lv, err := ParseLevel(level)
	if err != nil {
		return "", "", err
	}
	gd, err := ParseGender(gender)
	if err != nil {
		return "", "", err
	}
	return lv, gd, nil
}

// ItemIDs lists the ids of every item at level, boys first.
func ItemIDs(tree model.RequirementTree, level model.Level) []string {
	var ids []string
	for _, gender := range model.Genders {
		for _, item := range tree.Items(level, gender) {
			ids = append(ids, item.ID)
		}
	}
	return ids
}
