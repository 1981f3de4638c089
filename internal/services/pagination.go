package services

// DefaultPageSize fills a 3x3 grid.
const DefaultPageSize = 9

type PageInfo struct {
	Index   int
	Count   int
	Start   int
	End     int
	HasPrev bool
	HasNext bool
}

func PageCount(n, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

func ClampPage(page, n, pageSize int) int {
	last := PageCount(n, pageSize) - 1
	if page > last {
		page = last
	}
	if page < 0 {
		page = 0
	}
	return page
}

func HasPrev(page int) bool {
	return page > 0
}

func HasNext(page, n, pageSize int) bool {
	return (page+1)*pageSize < n
}

// Paginate clamps page and returns the slice bounds for it.
func Paginate(n, page, pageSize int) PageInfo {
	if pageSize < 1 {
		pageSize = 1
	}
	if n < 0 {
		n = 0
	}
	page = ClampPage(page, n, pageSize)
	start := page * pageSize
	end := start + pageSize
	if end > n {
		end = n
	}
	if start > n {
		start = n
	}
	return PageInfo{
		Index:   page,
		Count:   PageCount(n, pageSize),
		Start:   start,
		End:     end,
		HasPrev: HasPrev(page),
		HasNext: HasNext(page, n, pageSize),
	}
}

func SlicePage[T any](items []T, page, pageSize int) []T {
	p := Paginate(len(items), page, pageSize)
	return items[p.Start:p.End]
}
