package dto

// MessageResponse is returned by operations with nothing else to report.
type MessageResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// PaginationInfo is the pagination block of every paged listing.
type PaginationInfo struct {
	Page    int   `json:"page" example:"1"`
	PerPage int   `json:"per_page" example:"10"`
	Total   int64 `json:"total" example:"42"`
	Pages   int   `json:"pages" example:"5"`
	HasNext bool  `json:"has_next" example:"true"`
	HasPrev bool  `json:"has_prev" example:"false"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"healthy"`
}
