package dto

type TollRequestPoint struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type TollRequest struct {
	Points      []TollRequestPoint `json:"points"`
	VehicleType string             `json:"vehicleType"`
}

type TollSummaryResponse struct {
	TotalCost float64 `json:"totalCost"`
	Currency  string  `json:"currency"`
}

type TollResponse struct {
	Success  bool                `json:"success"`
	Summary  TollSummaryResponse `json:"summary"`
	Tolls    []TollPointResponse `json:"tolls"`
	HasTolls bool                `json:"hasTolls"`
	Error    string              `json:"error,omitempty"`
}
