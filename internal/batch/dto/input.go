package dto

import "github.com/fekuna/omnipos-uniform-service/internal/model"

type CreateBatchInput struct {
	Name      string
	Type      string
	Items     []model.BatchItem
	CreatedBy string
}

type AllocateInput struct {
	Type        string
	VariantType string
	Color       string
	Size        string
	Quantity    int
}

func (in *AllocateInput) Key() model.SKUKey {
	return model.SKUKey{Type: in.Type, VariantType: in.VariantType, Color: in.Color, Size: in.Size}
}
