package dto

import "github.com/fekuna/omnipos-uniform-service/internal/model"

type ProductFilters struct {
	School      string `json:"school"`
	Type        string `json:"type"`
	Level       string `json:"level"`
	Gender      string `json:"gender"`
	SearchQuery string `json:"searchQuery"` // name, school, type, category
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
}

type CreateProductResult struct {
	Product     *model.Product           `json:"product"`
	Allocations []model.AllocationResult `json:"allocations"`
}

type ListProductsResponse struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
}

type ProductIDRequest struct {
	ID string `json:"id"`
}

type Empty struct{}
