package apisvc

import (
	"context"
	"net/url"

	"github.com/sendgrid/rest"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/event"
)

var _ event.API = (*Client)(nil)

func eventPath(id string) string {
	return "/events/" + url.PathEscape(id)
}

func (c *Client) ListEvents(ctx context.Context, filter event.Filter) ([]event.Event, error) {
	events := make([]event.Event, 0)
	err := c.do(ctx, call{method: rest.Get, path: "/events", query: filter.Params()}, &events)
	return events, err
}

func (c *Client) GetEvent(ctx context.Context, id string) (event.Event, error) {
	var evt event.Event
	err := c.do(ctx, call{method: rest.Get, path: eventPath(id)}, &evt)
	return evt, err
}

func (c *Client) CreateEvent(ctx context.Context, in event.Input) (event.Event, error) {
	var evt event.Event
	err := c.do(ctx, call{method: rest.Post, path: "/events", body: in}, &evt)
	return evt, err
}

func (c *Client) UpdateEvent(ctx context.Context, id string, in event.Input) (event.Event, error) {
	var evt event.Event
	err := c.do(ctx, call{method: rest.Put, path: eventPath(id), body: in}, &evt)
	return evt, err
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, call{method: rest.Delete, path: eventPath(id)}, nil)
}
