package model

import (
	"fmt"
	"strings"
	"time"
)

type BatchStatus string

const (
	BatchStatusActive   BatchStatus = "active"
	BatchStatusDepleted BatchStatus = "depleted"
)

type SizeQuantity struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type BatchItem struct {
	VariantType string         `json:"variantType"`
	Color       string         `json:"color"`
	Price       float64        `json:"price"`
	Sizes       []SizeQuantity `json:"sizes"`
}

// Batch is one production run of a single uniform type.
type Batch struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Type          string      `json:"type"`
	Items         []BatchItem `json:"items"`
	TotalQuantity int         `json:"totalQuantity"`
	TotalValue    float64     `json:"totalValue"`
	CreatedBy     string      `json:"createdBy"`
	CreatedAt     time.Time   `json:"createdAt"`
	Status        BatchStatus `json:"status"`
}

// Clone returns a copy whose items and sizes can be mutated independently.
func (b Batch) Clone() Batch {
	out := b
	out.Items = make([]BatchItem, len(b.Items))
	for i, item := range b.Items {
		out.Items[i] = item
		out.Items[i].Sizes = append([]SizeQuantity(nil), item.Sizes...)
	}
	return out
}

// SKUKey identifies one stock unit across batches.
type SKUKey struct {
	Type        string `json:"type"`
	VariantType string `json:"variantType"`
	Color       string `json:"color"`
	Size        string `json:"size"`
}

func (k SKUKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.Type, k.VariantType, k.Color, k.Size)
}

// Validate rejects keys with blank components; a blank component never matches stock.
func (k SKUKey) Validate() error {
	switch {
	case strings.TrimSpace(k.Type) == "":
		return &ValidationError{Field: "type", Reason: "must not be empty"}
	case strings.TrimSpace(k.VariantType) == "":
		return &ValidationError{Field: "variantType", Reason: "must not be empty"}
	case strings.TrimSpace(k.Color) == "":
		return &ValidationError{Field: "color", Reason: "must not be empty"}
	case strings.TrimSpace(k.Size) == "":
		return &ValidationError{Field: "size", Reason: "must not be empty"}
	}
	return nil
}

// AllocationEntry records how much one batch size entry contributed to a request.
type AllocationEntry struct {
	BatchID  string `json:"batchId"`
	Size     string `json:"size"`
	Deducted int    `json:"deducted"`
}

type AllocationResult struct {
	Key       SKUKey            `json:"key"`
	Requested int               `json:"requested"`
	Entries   []AllocationEntry `json:"entries"`
}

// Allocated sums the ledger.
func (r AllocationResult) Allocated() int {
	total := 0
	for _, e := range r.Entries {
		total += e.Deducted
	}
	return total
}
