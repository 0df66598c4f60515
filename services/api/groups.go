package apisvc

import (
	"context"
	"net/url"

	"github.com/sendgrid/rest"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/membership"
)

var _ membership.GroupAPI = (*Client)(nil)

func groupPath(id string, action ...string) string {
	p := "/class-groups/" + url.PathEscape(id)
	for _, a := range action {
		p += "/" + a
	}
	return p
}

func (c *Client) ListClassGroups(ctx context.Context) ([]membership.ClassGroup, error) {
	groups := make([]membership.ClassGroup, 0)
	err := c.do(ctx, call{method: rest.Get, path: "/class-groups"}, &groups)
	return groups, err
}

func (c *Client) GetClassGroup(ctx context.Context, id string) (membership.ClassGroup, error) {
	var g membership.ClassGroup
	err := c.do(ctx, call{method: rest.Get, path: groupPath(id)}, &g)
	return g, err
}

func (c *Client) JoinClassGroup(ctx context.Context, id string) (membership.Change, error) {
	var ch membership.Change
	err := c.do(ctx, call{method: rest.Post, path: groupPath(id, string(membership.ActionJoin))}, &ch)
	return ch, err
}

func (c *Client) LeaveClassGroup(ctx context.Context, id string) (membership.Change, error) {
	var ch membership.Change
	err := c.do(ctx, call{method: rest.Post, path: groupPath(id, string(membership.ActionLeave))}, &ch)
	return ch, err
}
