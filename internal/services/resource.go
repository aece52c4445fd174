// Package services exposes one module per REST resource, all sharing the backend client.
package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/buensabor/buensabor-web/internal/backend"
)

// Paths locates a resource on the backend. Item is a prefix the id is appended to.
type Paths struct {
	List   string
	Create string
	Item   string
}

func (p Paths) item(id int64) string {
	return strings.TrimRight(p.Item, "/") + "/" + strconv.FormatInt(id, 10)
}

// Resource is the getAll/create/update/delete contract for one entity.
type Resource[T any, In any] struct {
	client *backend.Client
	paths  Paths
}

// NewResource binds a resource to its paths.
func NewResource[T any, In any](client *backend.Client, paths Paths) Resource[T, In] {
	return Resource[T, In]{client: client, paths: paths}
}

// List returns one normalized page. Search is forwarded as-is when set.
func (r Resource[T, In]) List(ctx context.Context, offset, limit int, search string) (backend.Page[T], error) {
	var extra url.Values
	if search = strings.TrimSpace(search); search != "" {
		extra = url.Values{"search": {search}}
	}
	return backend.List[T](ctx, r.client, r.paths.List, offset, limit, extra)
}

// All walks every page.
func (r Resource[T, In]) All(ctx context.Context) ([]T, error) {
	return backend.ListAll[T](ctx, r.client, r.paths.List, nil)
}

// Get fetches a single record.
func (r Resource[T, In]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	err := r.client.GetJSON(ctx, r.paths.item(id), nil, &out)
	return out, err
}

// Create posts a new record.
func (r Resource[T, In]) Create(ctx context.Context, in In) (T, error) {
	var out T
	err := r.client.PostJSON(ctx, r.paths.Create, nil, in, &out)
	return out, err
}

// Update replaces the record id.
func (r Resource[T, In]) Update(ctx context.Context, id int64, in In) (T, error) {
	var out T
	err := r.client.PutJSON(ctx, r.paths.item(id), nil, in, &out)
	return out, err
}

// Delete removes the record id.
func (r Resource[T, In]) Delete(ctx context.Context, id int64) error {
	return r.client.Delete(ctx, r.paths.item(id))
}
