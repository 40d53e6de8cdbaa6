package dto

import "github.com/fekuna/omnipos-uniform-service/internal/model"

type CreateProductInput struct {
	Name      string          `json:"name"`
	School    string          `json:"school"`
	Category  string          `json:"category"`
	Type      string          `json:"type"`
	Gender    string          `json:"gender"`
	Level     string          `json:"level"`
	Variants  []model.Variant `json:"variants"`
	CreatedBy string          `json:"-"`
}
