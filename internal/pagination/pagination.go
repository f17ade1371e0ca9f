package pagination

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Params — параметры запроса страницы.
type Params struct {
	Page     int // номер страницы (с 1)
	PageSize int // количество элементов на странице
}

// Normalize подставляет дефолты при некорректных значениях.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip for the normalized params.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

func (p Params) Limit() int { return p.Normalize().PageSize }

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T   `json:"results"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	HasNext  bool  `json:"has_next"`
	HasPrev  bool  `json:"has_prev"`
	Total    int64 `json:"count"` // общее количество элементов
}

// New собирает страницу из уже выбранных из хранилища элементов.
func New[T any](items []T, total int64, p Params) Page[T] {
	n := p.Normalize()
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     n.Page,
		PageSize: n.PageSize,
		HasPrev:  n.Page > 1,
		HasNext:  int64(n.Offset()+len(items)) < total,
		Total:    total,
	}
}

// Map converts page items while keeping the metadata.
func Map[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, fn(it))
	}
	return Page[U]{
		Items:    out,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
		Total:    p.Total,
	}
}
