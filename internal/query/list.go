// Package query turns list-endpoint query strings into Mongo filters,
// sort orders and skip/limit pairs, and shapes the pagination envelope.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/markjakearzadon/eduplus-gobackend/internal/models"
)

const (
	DefaultPage  int64 = 1
	DefaultLimit int64 = 10
)

// List is a parsed list request.
type List struct {
	Page    int64
	Limit   int64
	Admin   bool
	Filters map[string]string
}

// Parse reads page, limit, admin and the equality filters named by
// filterKeys. Missing, non-numeric or non-positive page/limit fall back to
// the defaults. When maxLimit > 0, limit is clamped to it. Page is capped so
// that Skip cannot overflow.
func Parse(values url.Values, maxLimit int64, filterKeys ...string) List {
	l := List{
		Page:    positiveOr(values.Get("page"), DefaultPage),
		Limit:   positiveOr(values.Get("limit"), DefaultLimit),
		Admin:   isTrue(values.Get("admin")),
		Filters: make(map[string]string, len(filterKeys)),
	}
	if maxLimit > 0 && l.Limit > maxLimit {
		l.Limit = maxLimit
	}
	if maxPage := math.MaxInt64 / l.Limit; l.Page > maxPage {
		l.Page = maxPage
	}
	for _, key := range filterKeys {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			l.Filters[key] = v
		}
	}
	return l
}

// Filter returns status=approved unless the admin flag is set, intersected
// with the equality filters.
func (l List) Filter() bson.M {
	filter := bson.M{}
	for k, v := range l.Filters {
		filter[k] = v
	}
	if !l.Admin {
		filter["status"] = models.StatusApproved
	}
	return filter
}

// Skip is the number of documents before the requested page.
func (l List) Skip() int64 {
	return (l.Page - 1) * l.Limit
}

// FindOptions sorts newest first and applies skip/limit.
func (l List) FindOptions() *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(l.Skip()).
		SetLimit(l.Limit)
}

// Page is the envelope returned by paginated list endpoints.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// NewPage wraps items with the counts callers need to render pagination.
func NewPage[T any](items []T, total int64, l List) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Data:       items,
		Total:      total,
		Page:       l.Page,
		Limit:      l.Limit,
		TotalPages: TotalPages(total, l.Limit),
	}
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int64) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func positiveOr(raw string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func isTrue(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
