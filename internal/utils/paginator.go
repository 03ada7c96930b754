package utils

import "strconv"

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Paginator resolves page/per-page query values against a total count.
// A missing or non-numeric page falls back to the first page, a page outside
// 1..NumPages falls back to the last one. An empty set still has one page.
type Paginator struct {
	Page     int
	PerPage  int
	Total    int
	NumPages int
}

type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	NumPages int `json:"num_pages"`
}

func ParsePerPage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return DefaultPerPage
	}
	if n > MaxPerPage {
		return MaxPerPage
	}
	return n
}

func NewPaginator(total int, pageRaw, perPageRaw string) Paginator {
	p := Paginator{PerPage: ParsePerPage(perPageRaw), Total: total}
	p.NumPages = 1
	if total > 0 {
		p.NumPages = (total + p.PerPage - 1) / p.PerPage
	}

	page, err := strconv.Atoi(pageRaw)
	switch {
	case err != nil:
		page = 1
	case page < 1 || page > p.NumPages:
		page = p.NumPages
	}
	p.Page = page
	return p
}

func (p Paginator) Offset() int { return (p.Page - 1) * p.PerPage }

func (p Paginator) Limit() int { return p.PerPage }

func NewPage[T any](p Paginator, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     p.Page,
		PerPage:  p.PerPage,
		Total:    p.Total,
		NumPages: p.NumPages,
	}
}
