package cmd

import (
	"context"
	"fmt"

	v1 "github.com/ardanlabs/ledger/business/web/v1"
	"github.com/go-resty/resty/v2"
)

// client provides access to the public API of a node.
type client struct {
	rc *resty.Client
}

func newClient(url string) *client {
	rc := resty.New().
		SetBaseURL(url).
		SetHeader("Accept", "application/json")

	return &client{rc: rc}
}

func (c *client) get(ctx context.Context, path string, result any) error {
	var er v1.ErrorResponse

	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&er).
		Get(path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}

	return checkResponse(resp, &er)
}

func (c *client) post(ctx context.Context, path string, body any, result any) error {
	var er v1.ErrorResponse

	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(result).
		SetError(&er).
		Post(path)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}

	return checkResponse(resp, &er)
}

func checkResponse(resp *resty.Response, er *v1.ErrorResponse) error {
	if !resp.IsError() {
		return nil
	}

	if er.Error == "" {
		return fmt.Errorf("node responded %s", resp.Status())
	}

	if len(er.Fields) > 0 {
		return fmt.Errorf("node responded %s: %s: %v", resp.Status(), er.Error, er.Fields)
	}

	return fmt.Errorf("node responded %s: %s", resp.Status(), er.Error)
}
