package dto

type ProductFilters struct {
	SearchQuery string `json:"q"` // name search
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
}
