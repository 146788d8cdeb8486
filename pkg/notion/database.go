package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches every page of a database query, following cursors. The
// next page is requested while the current one is appended.
func QueryAll(ctx context.Context, c Client, dbID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	type result struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}

	request := func(cursor notionapi.Cursor) <-chan result {
		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if query != nil {
			req.Filter = query.Filter
			req.Sorts = query.Sorts
			req.PageSize = query.PageSize
		}
		ch := make(chan result, 1)
		go func() {
			resp, err := c.QueryDatabase(ctx, dbID, req)
			ch <- result{resp: resp, err: err}
		}()
		return ch
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "notion: query all")
	}

	var all []notionapi.Page
	pending := request("")
	for {
		var r result
		select {
		case r = <-pending:
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "notion: query all")
		}
		if r.err != nil {
			return nil, eris.Wrap(r.err, "notion: query all")
		}
		if r.resp.HasMore {
			pending = request(r.resp.NextCursor)
		}
		all = append(all, r.resp.Results...)
		if !r.resp.HasMore {
			return all, nil
		}
	}
}

// FindByTitle returns the first page whose title property equals value, or
// nil when none matches.
func FindByTitle(ctx context.Context, c Client, dbID, property, value string) (*notionapi.Page, error) {
	query := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: property,
			RichText: &notionapi.TextFilterCondition{Equals: value},
		},
		PageSize: 1,
	}
	resp, err := c.QueryDatabase(ctx, dbID, query)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: find %s = %s", property, value)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}
