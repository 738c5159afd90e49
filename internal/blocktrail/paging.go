package blocktrail

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/blocktrail/blocktrail-go/internal/core"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 200
)

// PageOptions selects one page of a list endpoint. Zero values fall back to
// page 1 and the client's configured limit and sort direction.
type PageOptions struct {
	Page    int
	Limit   int
	SortDir core.SortDir
}

func (c *Client) pageOptions(opts PageOptions) (PageOptions, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = c.pageLimit
	}
	if opts.Limit > MaxPageLimit {
		return opts, fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidInput, MaxPageLimit, opts.Limit)
	}
	opts.SortDir = core.SortDir(strings.ToLower(strings.TrimSpace(string(opts.SortDir))))
	switch opts.SortDir {
	case "":
		opts.SortDir = c.sortDir
	case core.SortAsc, core.SortDesc:
	default:
		return opts, fmt.Errorf("%w: sort_dir must be asc or desc, got %q", ErrInvalidInput, opts.SortDir)
	}
	return opts, nil
}

func (o PageOptions) values(withSort bool) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(o.Page))
	params.Set("limit", strconv.Itoa(o.Limit))
	if withSort && o.SortDir != "" {
		params.Set("sort_dir", string(o.SortDir))
	}
	return params
}

// PageFunc fetches one page of a list endpoint.
type PageFunc[T any] func(ctx context.Context, opts PageOptions) (*core.Page[T], error)

// Paginate walks pages starting at opts.Page until the server reports no more
// data or each returns an error. Every page is a separate dispatched call.
func Paginate[T any](ctx context.Context, opts PageOptions, fetch PageFunc[T], each func(page *core.Page[T]) error) error {
	if fetch == nil {
		return fmt.Errorf("%w: page fetcher is required", ErrInvalidInput)
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := fetch(ctx, opts)
		if err != nil {
			return err
		}
		if page == nil {
			return nil
		}
		if each != nil {
			if err := each(page); err != nil {
				return err
			}
		}
		if !page.HasMore() {
			return nil
		}
		opts.Page++
	}
}

// CollectAll returns every item of a list endpoint.
func CollectAll[T any](ctx context.Context, opts PageOptions, fetch PageFunc[T]) ([]T, error) {
	var items []T
	err := Paginate(ctx, opts, fetch, func(page *core.Page[T]) error {
		items = append(items, page.Data...)
		return nil
	})
	return items, err
}
