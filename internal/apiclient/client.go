// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apiclient is a typed client for the SpectraNet catalog REST API.
// Every function maps one endpoint to a request/response pair. The Client
// attaches the base URL and, when set, a bearer token, and translates
// transport and HTTP failures into *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single API call when no other timeout is set.
const DefaultTimeout = 30 * time.Second

// Client talks to the catalog API. It is safe for concurrent use; WithToken
// derives per-user copies that share the underlying http.Client.
type Client struct {
	baseURL   string
	http      *http.Client
	token     string
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the http.Client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the overall per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: "spectranet-web",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of the client that authenticates with token.
// An empty token yields an anonymous client.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token returns the bearer token attached to requests, if any.
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// newRequest builds a request for path relative to the base URL.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// doJSON sends in (if non-nil) as a JSON body and decodes the response
// into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	return c.send(op, req, out)
}

// doForm posts URL-encoded form values and decodes the JSON response.
func (c *Client) doForm(ctx context.Context, op, path string, form url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	return c.send(op, req, out)
}

// formField is one plain field of a multipart body.
type formField struct {
	name, value string
}

// File is a file part streamed to an upload endpoint.
type File struct {
	Name string    // original file name sent to the server
	Body io.Reader // file contents
}

// doMultipart streams fields and file as a multipart/form-data body.
// The body is produced through a pipe and never buffered in full.
func (c *Client) doMultipart(ctx context.Context, op, path string, fields []formField, file File, out any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, file))
	}()

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, pr, mw.FormDataContentType())
	if err != nil {
		pr.CloseWithError(err)
		return &Error{Op: op, Err: err}
	}
	return c.send(op, req, out)
}

// writeMultipart writes the form fields followed by the file part.
func writeMultipart(mw *multipart.Writer, fields []formField, file File) error {
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file.Body); err != nil {
		return fmt.Errorf("copy %s: %w", file.Name, err)
	}
	return mw.Close()
}

// send executes req, maps failures to *Error and decodes a JSON body.
func (c *Client) send(op string, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(op, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
