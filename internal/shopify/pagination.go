package shopify

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const pageLimit = 250

// listAll follows Link rel="next" cursors until the last page. Shopify only accepts
// limit (and fields) next to page_info, so filters apply to the first request only.
func listAll[E any, T any](ctx context.Context, c *Client, path string, query url.Values, items func(E) []T) ([]T, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("limit", strconv.Itoa(pageLimit))

	var all []T
	for {
		var envelope E
		header, err := c.Get(ctx, path, query, &envelope)
		if err != nil {
			return nil, err
		}
		all = append(all, items(envelope)...)

		cursor := nextPageInfo(header)
		if cursor == "" {
			break
		}
		query = url.Values{}
		query.Set("limit", strconv.Itoa(pageLimit))
		query.Set("page_info", cursor)
	}

	if all == nil {
		all = []T{}
	}
	return all, nil
}

// nextPageInfo extracts page_info from a header such as
// Link: <https://x/admin/api/2024-01/products.json?limit=250&page_info=abc>; rel="next"
func nextPageInfo(h http.Header) string {
	for _, link := range h.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			segments := strings.Split(part, ";")
			if len(segments) < 2 {
				continue
			}
			isNext := false
			for _, attr := range segments[1:] {
				if strings.TrimSpace(attr) == `rel="next"` {
					isNext = true
					break
				}
			}
			if !isNext {
				continue
			}

			raw := strings.Trim(strings.TrimSpace(segments[0]), "<>")
			u, err := url.Parse(raw)
			if err != nil {
				continue
			}
			if cursor := u.Query().Get("page_info"); cursor != "" {
				return cursor
			}
		}
	}
	return ""
}
