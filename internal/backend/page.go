package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const (
	listAllPageSize = 100
	listAllMaxPages = 50
)

// Page is the normalized result of any list endpoint.
type Page[T any] struct {
	Data    []T
	Total   int
	HasNext bool
}

type envelope[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// DecodePage accepts either the paginated envelope or a bare JSON array.
func DecodePage[T any](body []byte) (Page[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return Page[T]{}, fmt.Errorf("backend: decode page: %w", err)
		}
		if _, ok := probe["items"]; ok {
			var env envelope[T]
			if err := json.Unmarshal(trimmed, &env); err != nil {
				return Page[T]{}, fmt.Errorf("backend: decode page: %w", err)
			}
			if env.Items == nil {
				env.Items = []T{}
			}
			return Page[T]{
				Data:    env.Items,
				Total:   env.Total,
				HasNext: env.Offset+env.Limit < env.Total,
			}, nil
		}
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return Page[T]{}, fmt.Errorf("backend: unexpected list shape: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Total: len(items), HasNext: false}, nil
}

// List fetches one page of path with offset/limit query parameters.
func List[T any](ctx context.Context, c *Client, path string, offset, limit int, extra url.Values) (Page[T], error) {
	query := url.Values{}
	for key, values := range extra {
		for _, v := range values {
			if v != "" {
				query.Add(key, v)
			}
		}
	}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	body, err := c.Do(ctx, "GET", path, query, nil)
	if err != nil {
		return Page[T]{}, err
	}
	return DecodePage[T](body)
}

// ListAll walks every page of path.
func ListAll[T any](ctx context.Context, c *Client, path string, extra url.Values) ([]T, error) {
	var all []T
	offset := 0
	for i := 0; i < listAllMaxPages; i++ {
		page, err := List[T](ctx, c, path, offset, listAllPageSize, extra)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasNext || len(page.Data) == 0 {
			return all, nil
		}
		offset += len(page.Data)
	}
	return all, nil
}
