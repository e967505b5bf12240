package domain

import (
	"net/url"
	"strconv"
)

// DefaultPageSize applies when a request omits or zeroes the size.
const DefaultPageSize = 20

// PageRequest selects a page of a list endpoint. Page is 0-based.
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps the request to valid values.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	return p
}

// Values encodes the request as query parameters.
func (p PageRequest) Values() url.Values {
	p = p.Normalize()
	return url.Values{
		"page": []string{strconv.Itoa(p.Page)},
		"size": []string{strconv.Itoa(p.Size)},
	}
}

// Page is the backend's paged list envelope.
type Page[T any] struct {
	Content          []T   `json:"content"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	Size             int   `json:"size"`
	Number           int   `json:"number"`
	NumberOfElements int   `json:"numberOfElements"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	Empty            bool  `json:"empty"`
}

// NewPage slices all into the envelope for req.
func NewPage[T any](all []T, req PageRequest) Page[T] {
	req = req.Normalize()
	total := len(all)
	start := req.Page * req.Size
	if start > total {
		start = total
	}
	end := start + req.Size
	if end > total {
		end = total
	}
	content := make([]T, end-start)
	copy(content, all[start:end])

	totalPages := (total + req.Size - 1) / req.Size
	return Page[T]{
		Content:          content,
		TotalElements:    int64(total),
		TotalPages:       totalPages,
		Size:             req.Size,
		Number:           req.Page,
		NumberOfElements: len(content),
		First:            req.Page == 0,
		Last:             req.Page >= totalPages-1,
		Empty:            len(content) == 0,
	}
}
