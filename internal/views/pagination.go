package views

import "github.com/goliatone/go-cms-admin/internal/apiclient"

// Pagination describes the page controls of a list.
type Pagination struct {
	Page  int
	Limit int
	Total int
	Pages int
	From  int
	To    int
}

// NewPagination derives page controls from a list meta block.
func NewPagination(meta apiclient.Meta) Pagination {
	p := Pagination{
		Page:  max(meta.Page, 1),
		Limit: meta.Limit,
		Total: max(meta.Total, 0),
		Pages: meta.TotalPages(),
	}
	if p.Total > 0 && p.Limit > 0 {
		p.From = (p.Page-1)*p.Limit + 1
		p.To = min(p.Page*p.Limit, p.Total)
		if p.From > p.Total {
			p.From, p.To = 0, 0
		}
	}
	return p
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool {
	return p.Page < p.Pages
}

// Prev returns the previous page number.
func (p Pagination) Prev() int {
	return max(p.Page-1, 1)
}

// Next returns the next page number.
func (p Pagination) Next() int {
	return min(p.Page+1, max(p.Pages, 1))
}

// Window returns up to size page numbers centred on the current page.
func (p Pagination) Window(size int) []int {
	if p.Pages == 0 || size <= 0 {
		return nil
	}
	start := max(p.Page-size/2, 1)
	end := min(start+size-1, p.Pages)
	start = max(end-size+1, 1)
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}
