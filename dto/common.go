package dto

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int64(0)
	if limit > 0 {
		totalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

type PageQuery struct {
	Page  int `query:"page" validate:"min=1"`
	Limit int `query:"limit" validate:"min=1,max=100"`
}

// Defaults fills page 1 / limit 20 when the caller omitted them.
func (q *PageQuery) Defaults() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
}

func (q PageQuery) Validate() error {
	return GetValidator().Struct(q)
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type MessageResponse struct {
	Message string `json:"message"`
}
