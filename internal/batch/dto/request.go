package dto

import (
	"github.com/fekuna/omnipos-uniform-service/internal/batch/catalog"
	"github.com/fekuna/omnipos-uniform-service/internal/model"
)

// Wire payloads for uniform.v1.BatchService.

type CreateBatchRequest struct {
	Name  string            `json:"name"`
	Type  string            `json:"type"`
	Items []model.BatchItem `json:"items"`
}

type BatchIDRequest struct {
	ID string `json:"id"`
}

type ListBatchesRequest struct {
	Type         string `json:"type"`
	Status       string `json:"status"`
	ForceRefresh bool   `json:"forceRefresh"`
}

type ListBatchesResponse struct {
	Batches []model.Batch `json:"batches"`
	Total   int           `json:"total"`
}

// CatalogRequest narrows the returned choices: with only Type set the
// variants are listed, with VariantType the colors, with Color the sizes.
type CatalogRequest struct {
	Type         string `json:"type"`
	VariantType  string `json:"variantType"`
	Color        string `json:"color"`
	ForceRefresh bool   `json:"forceRefresh"`
}

type CatalogResponse struct {
	Types    []string        `json:"types"`
	Variants []string        `json:"variants,omitempty"`
	Colors   []string        `json:"colors,omitempty"`
	Sizes    []string        `json:"sizes,omitempty"`
	Entries  []catalog.Entry `json:"entries"`
}

type AvailableQuantityRequest struct {
	Type         string `json:"type"`
	VariantType  string `json:"variantType"`
	Color        string `json:"color"`
	Size         string `json:"size"`
	ForceRefresh bool   `json:"forceRefresh"`
}

type AvailableQuantityResponse struct {
	Available int `json:"available"`
}

type AllocateRequest struct {
	Type        string `json:"type"`
	VariantType string `json:"variantType"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
}

type Empty struct{}
