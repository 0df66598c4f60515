package apisvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
)

const authPrefix = "/auth/"

type (
	// TokenSource provides the bearer token of the current session.
	TokenSource interface {
		Token() string
	}

	Options struct {
		BaseURL string
		Timeout time.Duration
		Tokens  TokenSource // optional

		// OnUnauthorized is called when a request that carried a bearer token is answered
		// with a 401. Auth endpoints never trigger it.
		OnUnauthorized func()

		Logger     core.Logger   // optional
		HTTPClient *http.Client // optional
	}

	// Client talks to the alumni REST backend.
	Client struct {
		opts Options
		rest *rest.Client
	}

	// envelope is the shape of every backend response.
	envelope struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Code    string          `json:"code"`
	}

	call struct {
		method rest.Method
		path   string
		query  map[string]string
		body   interface{}
		token  *string
	}
)

func NewClient(opts Options) *Client {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{opts: opts, rest: &rest.Client{HTTPClient: httpClient}}
}

// SetTokenSource attaches the session after construction.
func (c *Client) SetTokenSource(tokens TokenSource, onUnauthorized func()) {
	c.opts.Tokens = tokens
	c.opts.OnUnauthorized = onUnauthorized
}

func (c *Client) token(cl call) string {
	if cl.token != nil {
		return *cl.token
	}
	if c.opts.Tokens == nil {
		return ""
	}
	return c.opts.Tokens.Token()
}

// do sends cl and decodes the response data into out (when not nil).
func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	req := rest.Request{
		Method:      cl.method,
		BaseURL:     c.opts.BaseURL + cl.path,
		QueryParams: cl.query,
		Headers: map[string]string{
			"Accept":       "application/json",
			"X-Request-ID": uuid.New().String(),
		},
	}
	if cl.body != nil {
		body, err := json.Marshal(cl.body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s", cl.method, cl.path)
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}
	token := c.token(cl)
	if token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		c.logDebug(fmt.Sprintf("%s %s failed", cl.method, cl.path), err)
		return core.NewNetworkError(errors.Wrapf(err, "%s %s", cl.method, cl.path))
	}

	var env envelope
	decodeErr := json.Unmarshal([]byte(res.Body), &env)

	if res.StatusCode >= http.StatusBadRequest || (env.Success != nil && !*env.Success) {
		status := res.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		apiErr := core.NewResponseError(status, env.Code, core.FirstNonEmpty(env.Error, env.Message))
		if decodeErr != nil {
			apiErr.Err = errors.Wrap(decodeErr, "decoding error response")
		}
		c.logDebug(fmt.Sprintf("%s %s: %v", cl.method, cl.path, apiErr), res.Headers)
		if status == http.StatusUnauthorized && token != "" && !strings.HasPrefix(cl.path, authPrefix) &&
			c.opts.OnUnauthorized != nil {
			c.opts.OnUnauthorized()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	// some endpoints answer without the envelope, or with the payload at the top level
	data := []byte(env.Data)
	if len(data) == 0 || string(data) == "null" {
		data = []byte(res.Body)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &core.APIError{
			Kind:   core.KindServer,
			Status: res.StatusCode,
			Err:    errors.Wrapf(err, "decoding %s %s", cl.method, cl.path),
		}
	}
	return nil
}

func (c *Client) logDebug(msg string, args ...interface{}) {
	if c.opts.Logger != nil {
		c.opts.Logger.Debug("api: "+msg, args...)
	}
}
