package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stacklok/catalog-exporter/internal/export"
)

// maxCachedValues bounds the resolved values kept by a QueryResolver
const maxCachedValues = 10000

// QueryResolver resolves a value with a lookup query taking the value as $1 and
// returning a single column
type QueryResolver struct {
	db    Querier
	query string
	cache map[string]string
}

var _ export.Resolver = (*QueryResolver)(nil)

// NewQueryResolver creates a resolver for the given lookup query
func NewQueryResolver(db Querier, query string) *QueryResolver {
	return &QueryResolver{
		db:    db,
		query: query,
		cache: make(map[string]string),
	}
}

// Resolve implements export.Resolver
func (r *QueryResolver) Resolve(ctx context.Context, value string) (string, error) {
	if resolved, ok := r.cache[value]; ok {
		return resolved, nil
	}

	var out any
	err := r.db.QueryRow(ctx, r.query, value).Scan(&out)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("no value found for %q", value)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", value, err)
	}

	resolved := FormatValue(out)
	if len(r.cache) < maxCachedValues {
		r.cache[value] = resolved
	}
	return resolved, nil
}
