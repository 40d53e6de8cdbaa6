package dto

import (
	"encoding/json"

	"github.com/fekuna/omnipos-uniform-service/internal/model"
	"github.com/fekuna/omnipos-uniform-service/internal/requirement"
)

type CreateSchoolInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
	// UniformRequirements may be in any shape requirement.Normalize accepts.
	UniformRequirements json.RawMessage `json:"uniformRequirements,omitempty"`
}

type UpdateSchoolInput struct {
	ID      string  `json:"id"`
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Contact *string `json:"contact,omitempty"`
}

type SetRequirementsInput struct {
	SchoolID            string          `json:"schoolId"`
	UniformRequirements json.RawMessage `json:"uniformRequirements"`
}

type AddRequirementInput struct {
	SchoolID           string `json:"schoolId"`
	Level              string `json:"level"`
	Gender             string `json:"gender"`
	UniformID          string `json:"uniformId"`
	Item               string `json:"item"`
	QuantityPerStudent int    `json:"quantityPerStudent"`
	// Required defaults to true when omitted.
	Required *bool `json:"required,omitempty"`
}

type RemoveRequirementInput struct {
	SchoolID string `json:"schoolId"`
	Level    string `json:"level"`
	Gender   string `json:"gender"`
	Index    int    `json:"index"`
}

type UpdateRequirementInput struct {
	SchoolID string                `json:"schoolId"`
	Level    string                `json:"level"`
	Gender   string                `json:"gender"`
	Index    int                   `json:"index"`
	Patch    requirement.ItemPatch `json:"patch"`
}

type AddStudentInput struct {
	SchoolID string `json:"schoolId"`
	Name     string `json:"name"`
	Level    string `json:"level"`
	Gender   string `json:"gender"`
}

type UpdateStudentInput struct {
	SchoolID  string  `json:"schoolId"`
	StudentID string  `json:"studentId"`
	Name      *string `json:"name,omitempty"`
	// Changing the level re-seeds the student's fulfillment maps.
	Level *string `json:"level,omitempty"`
}

type StudentRef struct {
	SchoolID  string `json:"schoolId"`
	StudentID string `json:"studentId"`
}

type SetStudentStatusInput struct {
	SchoolID  string                  `json:"schoolId"`
	StudentID string                  `json:"studentId"`
	ItemID    string                  `json:"itemId"`
	Status    model.FulfillmentStatus `json:"status"`
}

type AdjustStudentQuantityInput struct {
	SchoolID  string `json:"schoolId"`
	StudentID string `json:"studentId"`
	ItemID    string `json:"itemId"`
	Delta     int    `json:"delta"`
}
