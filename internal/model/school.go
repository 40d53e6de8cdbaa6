package model

import (
	"encoding/json"
	"time"
)

type Level string

const (
	LevelJunior Level = "JUNIOR"
	LevelSenior Level = "SENIOR"
)

// Gender keys a requirement list. Students carry a StudentGender instead.
type Gender string

const (
	GenderBoys  Gender = "BOYS"
	GenderGirls Gender = "GIRLS"
)

var (
	Levels  = []Level{LevelJunior, LevelSenior}
	Genders = []Gender{GenderBoys, GenderGirls}
)

type StudentGender string

const (
	StudentMale   StudentGender = "MALE"
	StudentFemale StudentGender = "FEMALE"
)

type FulfillmentStatus string

const (
	StatusPending   FulfillmentStatus = "pending"
	StatusOrdered   FulfillmentStatus = "ordered"
	StatusCompleted FulfillmentStatus = "completed"
)

func (s FulfillmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusOrdered, StatusCompleted:
		return true
	}
	return false
}

type RequirementItem struct {
	ID                 string `json:"id"`
	UniformID          string `json:"uniformId"`
	Item               string `json:"item"`
	QuantityPerStudent int    `json:"quantityPerStudent"`
	Required           bool   `json:"required"`
}

type GenderRequirements struct {
	Boys  []RequirementItem `json:"BOYS"`
	Girls []RequirementItem `json:"GIRLS"`
}

// MarshalJSON writes empty lists instead of null so both keys always exist in stored documents.
func (g GenderRequirements) MarshalJSON() ([]byte, error) {
	type plain GenderRequirements
	out := plain(g)
	if out.Boys == nil {
		out.Boys = []RequirementItem{}
	}
	if out.Girls == nil {
		out.Girls = []RequirementItem{}
	}
	return json.Marshal(out)
}

// RequirementTree is the level x gender grid of uniform items a school requires.
type RequirementTree struct {
	Junior GenderRequirements `json:"JUNIOR"`
	Senior GenderRequirements `json:"SENIOR"`
}

func (t *RequirementTree) level(level Level) *GenderRequirements {
	switch level {
	case LevelJunior:
		return &t.Junior
	case LevelSenior:
		return &t.Senior
	}
	return nil
}

// Items returns the list stored under level/gender, or nil for an unknown pair.
func (t RequirementTree) Items(level Level, gender Gender) []RequirementItem {
	g := t.level(level)
	if g == nil {
		return nil
	}
	switch gender {
	case GenderBoys:
		return g.Boys
	case GenderGirls:
		return g.Girls
	}
	return nil
}

// SetItems replaces the list stored under level/gender. Unknown pairs are ignored.
func (t *RequirementTree) SetItems(level Level, gender Gender, items []RequirementItem) {
	g := t.level(level)
	if g == nil {
		return
	}
	if items == nil {
		items = []RequirementItem{}
	}
	switch gender {
	case GenderBoys:
		g.Boys = items
	case GenderGirls:
		g.Girls = items
	}
}

// Clone deep copies every list.
func (t RequirementTree) Clone() RequirementTree {
	var out RequirementTree
	for _, level := range Levels {
		for _, gender := range Genders {
			out.SetItems(level, gender, append([]RequirementItem{}, t.Items(level, gender)...))
		}
	}
	return out
}

type Student struct {
	ID                string                       `json:"id"`
	Name              string                       `json:"name"`
	Level             Level                        `json:"level"`
	Gender            StudentGender                `json:"gender"`
	UniformStatus     map[string]FulfillmentStatus `json:"uniformStatus"`
	UniformQuantities map[string]int               `json:"uniformQuantities"`
}

type School struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Address             string          `json:"address"`
	Contact             string          `json:"contact"`
	UniformRequirements RequirementTree `json:"uniformRequirements"`
	Students            []Student       `json:"students"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// FindStudent returns the index of the student with id, or -1.
func (s *School) FindStudent(id string) int {
	for i := range s.Students {
		if s.Students[i].ID == id {
			return i
		}
	}
	return -1
}
