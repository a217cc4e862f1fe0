package platform

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Invoke calls the serverless function name with a JSON body and the caller's bearer.
// Gateway failures (404, 502, 503, 504) without a function-provided message are
// reported as "function unreachable".
func (c *Client) Invoke(ctx context.Context, name, bearer string, body, result interface{}) error {
	if body == nil {
		body = struct{}{}
	}
	err := c.Do(ctx, http.MethodPost, "/functions/v1/"+url.PathEscape(name), nil, bearer, body, result)
	var pe *Error
	if errors.As(err, &pe) && gatewayFailure(pe.Status) && pe.Message == http.StatusText(pe.Status) {
		pe.Message = "function unreachable: " + name
	}
	return err
}

func gatewayFailure(status int) bool {
	switch status {
	case http.StatusNotFound, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
