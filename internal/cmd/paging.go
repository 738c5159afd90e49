package cmd

import (
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/blocktrail"
	"github.com/blocktrail/blocktrail-go/internal/core"
)

type pageFlags struct {
	page    int
	limit   int
	sortDir string
	all     bool
}

func addPageFlags(cmd *cobra.Command, withSort bool) *pageFlags {
	f := &pageFlags{}
	cmd.Flags().IntVar(&f.page, "page", 1, "page to fetch")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "items per page, 1-200 (default from config)")
	if withSort {
		cmd.Flags().StringVar(&f.sortDir, "sort-dir", "", "sort direction: asc|desc (default from config)")
	}
	cmd.Flags().BoolVar(&f.all, "all", false, "fetch every page starting at --page")
	return f
}

func (f *pageFlags) options() blocktrail.PageOptions {
	return blocktrail.PageOptions{
		Page:    f.page,
		Limit:   f.limit,
		SortDir: core.SortDir(f.sortDir),
	}
}

// fetchPages returns one page, or with --all every item from --page onwards.
// Each page is a separate API call and counts against the quota.
func fetchPages[T any](cmd *cobra.Command, f *pageFlags, fetch blocktrail.PageFunc[T]) (any, error) {
	ctx := cmd.Context()
	if !f.all {
		return fetch(ctx, f.options())
	}

	var (
		items []T
		bar   *progressbar.ProgressBar
	)
	err := blocktrail.Paginate(ctx, f.options(), fetch, func(page *core.Page[T]) error {
		if bar == nil {
			bar = newPageBar(cmd.ErrOrStderr(), page.Total)
		}
		items = append(items, page.Data...)
		return bar.Add(len(page.Data))
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

// newPageBar returns a bar sized to total, or a spinner when the API does not
// report a total.
func newPageBar(w io.Writer, total int) *progressbar.ProgressBar {
	size := int64(total)
	if size <= 0 {
		size = -1
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(!noColor),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]fetching[reset]"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
