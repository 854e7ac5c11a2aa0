package dtos

import "github.com/justsurfingit/pipeline-crm/internal/repository"

// ListQuery is bound from the query string of every list endpoint.
type ListQuery struct {
	Search   string `form:"search"`
	Page     *int   `form:"page"`
	PageSize *int   `form:"pageSize"`
	SortBy   string `form:"sortBy"`
	SortDir  string `form:"sortDir"`
}

// Params converts the query into list parameters. An explicit page=0 or pageSize=0
// becomes -1 so it is rejected instead of defaulted.
func (q ListQuery) Params() repository.ListParams {
	p := repository.ListParams{Search: q.Search, SortBy: q.SortBy, SortDir: q.SortDir}
	if q.Page != nil {
		p.Page = *q.Page
		if p.Page == 0 {
			p.Page = -1
		}
	}
	if q.PageSize != nil {
		p.PageSize = *q.PageSize
		if p.PageSize == 0 {
			p.PageSize = -1
		}
	}
	return p
}

// EnsureDefaultsQuery is accepted by the stage and category listings.
type EnsureDefaultsQuery struct {
	EnsureDefaults bool `form:"ensureDefaults"`
}

// Fields collects column updates from a PATCH body. Only fields that were sent end up in the map.
type Fields map[string]any

func put[T any](f Fields, column string, v *T) {
	if v != nil {
		f[column] = *v
	}
}

// ref stores a reference column. An empty string clears it.
func ref(f Fields, column string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		f[column] = nil
		return
	}
	f[column] = *v
}

// optional treats an empty reference as absent.
func optional(id *string) *string {
	if id == nil || *id == "" {
		return nil
	}
	return id
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
