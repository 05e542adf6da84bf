package dto

// ErrorResponseDTO is the common error body.
type ErrorResponseDTO struct {
	Error string `json:"error"`
}

// List wraps list results with their count.
type List[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func NewList[T any](items []T) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Data: items, Count: len(items)}
}
