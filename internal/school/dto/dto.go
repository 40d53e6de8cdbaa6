package dto

import (
	"github.com/fekuna/omnipos-uniform-service/internal/analytics"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
)

type SchoolSummary struct {
	SchoolID          string                          `json:"schoolId"`
	StudentCount      int                             `json:"studentCount"`
	RequirementCounts analytics.RequirementCounts     `json:"requirementCounts"`
	StatusCounts      map[model.FulfillmentStatus]int `json:"statusCounts"`
}

type SchoolIDRequest struct {
	ID           string `json:"id"`
	ForceRefresh bool   `json:"forceRefresh"`
}

type ListSchoolsResponse struct {
	Schools []model.School `json:"schools"`
	Total   int            `json:"total"`
}

type Empty struct{}
