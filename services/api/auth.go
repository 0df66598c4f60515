package apisvc

import (
	"context"

	"github.com/sendgrid/rest"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/session"
)

var _ session.AuthAPI = (*Client)(nil)

func (c *Client) Login(ctx context.Context, creds session.Credentials) (session.AuthResult, error) {
	var res session.AuthResult
	err := c.do(ctx, call{method: rest.Post, path: "/auth/login", body: creds}, &res)
	return res, err
}

func (c *Client) Register(ctx context.Context, nu session.NewUser) (session.AuthResult, error) {
	var res session.AuthResult
	err := c.do(ctx, call{method: rest.Post, path: "/auth/register", body: nu}, &res)
	return res, err
}

// Me fetches the profile that token belongs to.
func (c *Client) Me(ctx context.Context, token string) (session.User, error) {
	var usr session.User
	err := c.do(ctx, call{method: rest.Get, path: "/auth/me", token: &token}, &usr)
	return usr, err
}
