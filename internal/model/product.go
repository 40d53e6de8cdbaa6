package model

import "time"

// Variant is finished stock of a product. It mirrors BatchItem but is never
// counted as batch stock.
type Variant struct {
	VariantType string         `json:"variantType"`
	Color       string         `json:"color"`
	Price       float64        `json:"price"`
	Sizes       []SizeQuantity `json:"sizes"`
}

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	School    string    `json:"school,omitempty"`
	Category  string    `json:"category"`
	Type      string    `json:"type"`
	Gender    string    `json:"gender"`
	Level     string    `json:"level"`
	Variants  []Variant `json:"variants"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}
