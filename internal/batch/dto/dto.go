package dto

type BatchFilters struct {
	Type         string
	Status       string
	ForceRefresh bool
}

type BatchSummary struct {
	BatchCount     int            `json:"batchCount"`
	ActiveCount    int            `json:"activeCount"`
	TotalQuantity  int            `json:"totalQuantity"`
	TotalValue     float64        `json:"totalValue"`
	QuantityByType map[string]int `json:"quantityByType"`
}
