package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/justsurfingit/pipeline-crm/internal/apperrors"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortColumns maps the public sortBy names of one entity to table columns.
type SortColumns map[string]string

// ListParams is the query contract shared by every list endpoint.
type ListParams struct {
	Search   string
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

// Normalize fills defaults and rejects anything outside the contract.
func (p *ListParams) Normalize(cols SortColumns) error {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Page < 1 {
		return apperrors.BadRequest("page must be at least 1")
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return apperrors.BadRequest(fmt.Sprintf("pageSize must be between 1 and %d", MaxPageSize))
	}
	if p.SortBy == "" {
		p.SortBy = "createdAt"
	}
	if _, ok := cols[p.SortBy]; !ok {
		return apperrors.BadRequest(fmt.Sprintf("unsupported sortBy %q", p.SortBy))
	}
	switch p.SortDir {
	case "":
		p.SortDir = "desc"
	case "asc", "desc":
	default:
		return apperrors.BadRequest("sortDir must be asc or desc")
	}
	p.Search = strings.TrimSpace(p.Search)
	return nil
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one slice of a filtered, sorted result set.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search matches term case-insensitively against any of the given columns.
// LIKE wildcards in term are matched literally.
func Search(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(columns) == 0 {
			return db
		}
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		clauses := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, col := range columns {
			clauses[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
			args[i] = like
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

// Eq adds "column = value" when value is non-empty.
func Eq(column, value string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if value == "" {
			return db
		}
		return db.Where(column+" = ?", value)
	}
}

// paginate counts and fetches one page of T. base must already carry the
// ownership and filter conditions. Ties on the sort column fall back to id.
func paginate[T any](ctx context.Context, base *gorm.DB, p ListParams, cols SortColumns, preload ...string) (*Page[T], error) {
	if err := p.Normalize(cols); err != nil {
		return nil, err
	}
	var model T
	var total int64
	if err := base.WithContext(ctx).Session(&gorm.Session{}).Model(&model).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	q := base.WithContext(ctx).Session(&gorm.Session{}).
		Order(cols[p.SortBy] + " " + p.SortDir).
		Order("id asc").
		Offset(p.Offset()).
		Limit(p.PageSize)
	for _, assoc := range preload {
		q = q.Preload(assoc)
	}

	items := make([]T, 0, p.PageSize)
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages(total, p.PageSize),
	}, nil
}
