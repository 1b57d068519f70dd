package models

// -----------------------------------------------------------------------------
// Request payloads for the REST API. Validation happens through gin's binding
// tags; handlers translate binding failures into 400 responses.
// -----------------------------------------------------------------------------

// MStockCreate is the body for creating a stock manually.
type MStockCreate struct {
	Symbol   string `json:"symbol" binding:"required,min=1,max=10"`
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Sector   string `json:"sector" binding:"omitempty,max=100"`
	Industry string `json:"industry" binding:"omitempty,max=100"`
	Exchange string `json:"exchange" binding:"omitempty,max=50"`
}

// -----------------------------------------------------------------------------

// MStockUpdate is a partial update; nil fields are left untouched.
type MStockUpdate struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=255"`
	Sector   *string `json:"sector" binding:"omitempty,max=100"`
	Industry *string `json:"industry" binding:"omitempty,max=100"`
	Exchange *string `json:"exchange" binding:"omitempty,max=50"`
	IsActive *bool   `json:"is_active"`
}

// -----------------------------------------------------------------------------

// MPriceFetchRequest asks the server to pull historical prices from an
// external provider and store them.
type MPriceFetchRequest struct {
	Symbol    string `json:"symbol" binding:"required,min=1,max=10"`
	StartDate string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Period    string `json:"period" binding:"omitempty,oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max"`
}
