package paging

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxSize = 100

// Params is a requested page. Page is 1-based.
type Params struct {
	Page int
	Size int
}

// FromQuery reads ?page= and ?size= falling back to defSize.
func FromQuery(c echo.Context, defSize int) Params {
	p, _ := strconv.Atoi(c.QueryParam("page"))
	s, _ := strconv.Atoi(c.QueryParam("size"))
	if s <= 0 {
		s = defSize
	}
	return Params{Page: p, Size: s}.normalize()
}

func (p Params) normalize() Params {
	if p.Size <= 0 {
		p.Size = 10
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// Offset is the row offset for the page, for use with Limit(Size).
func (p Params) Offset() int {
	p = p.normalize()
	return (p.Page - 1) * p.Size
}

// Page is one page of results plus the metadata templates need for links.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// New wraps items already cut to the requested page.
func New[T any](items []T, p Params, total int) Page[T] {
	p = p.normalize()
	pages := (total + p.Size - 1) / p.Size
	if pages < 1 {
		pages = 1
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Page:       p.Page,
		Size:       p.Size,
		Total:      total,
		TotalPages: pages,
		HasPrev:    p.Page > 1,
		HasNext:    p.Page < pages,
	}
}

// Slice pages an in-memory list. A page past the end is clamped to the last.
func Slice[T any](all []T, p Params) Page[T] {
	p = p.normalize()
	total := len(all)
	pages := (total + p.Size - 1) / p.Size
	if pages < 1 {
		pages = 1
	}
	if p.Page > pages {
		p.Page = pages
	}
	start := (p.Page - 1) * p.Size
	end := start + p.Size
	if end > total {
		end = total
	}
	return New(all[start:end], p, total)
}

// Map converts the items of a page, keeping its metadata.
func Map[T, U any](pg Page[T], f func(T) U) Page[U] {
	out := make([]U, len(pg.Items))
	for i, it := range pg.Items {
		out[i] = f(it)
	}
	return Page[U]{
		Items: out, Page: pg.Page, Size: pg.Size, Total: pg.Total,
		TotalPages: pg.TotalPages, HasPrev: pg.HasPrev, HasNext: pg.HasNext,
	}
}

// Numbers returns the page numbers to show around the current page.
func (pg Page[T]) Numbers(window int) []int {
	from := pg.Page - window
	if from < 1 {
		from = 1
	}
	to := pg.Page + window
	if to > pg.TotalPages {
		to = pg.TotalPages
	}
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
