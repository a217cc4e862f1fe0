package platform

import (
	"context"
	"net/http"
	"net/url"
)

// SelectRows reads rows from table via the REST interface. filters use the
// operator syntax of the rows API, e.g. {"user_id": {"eq.123"}}.
func (c *Client) SelectRows(ctx context.Context, table string, filters url.Values, bearer string, result interface{}) error {
	q := url.Values{}
	for k, v := range filters {
		q[k] = v
	}
	if q.Get("select") == "" {
		q.Set("select", "*")
	}
	return c.Do(ctx, http.MethodGet, "/rest/v1/"+url.PathEscape(table), q, bearer, nil, result)
}
