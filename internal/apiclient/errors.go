// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches any *Error carrying HTTP 401. The catalog API
	// answers 401 when the bearer token is missing, invalid or expired.
	ErrUnauthorized = errors.New("apiclient: session expired")

	// ErrForbidden matches any *Error carrying HTTP 403.
	ErrForbidden = errors.New("apiclient: forbidden")

	// ErrNotFound matches any *Error carrying HTTP 404.
	ErrNotFound = errors.New("apiclient: not found")
)

// maxErrorBody caps how much of an error response is read for its detail.
const maxErrorBody = 64 << 10

// Error is the uniform failure returned by every API call.
//
// Transport failures have Status 0 and a non-nil Err. HTTP failures carry
// the status code and, when the backend supplied one, its human-readable
// detail message.
type Error struct {
	Op     string // API operation, e.g. "create dataset"
	Status int    // HTTP status, 0 for transport failures
	Detail string // backend "detail" message, displayed verbatim to users
	Err    error  // underlying transport or decoding error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Detail)
	default:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
	}
}

// Unwrap exposes the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the status sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Detail returns the backend's detail message carried by err, or fallback
// when err carries none.
func Detail(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// errorBody is the FastAPI error envelope. Detail is either a string or a
// list of validation items.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// responseError builds an *Error from a non-2xx response.
func responseError(op string, resp *http.Response) *Error {
	e := &Error{Op: op, Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return e
	}
	e.Detail = parseDetail(raw)
	return e
}

// parseDetail extracts the human-readable message from an error body.
func parseDetail(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var items []validationItem
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if field := lastLoc(it.Loc); field != "" {
				msgs = append(msgs, field+": "+it.Msg)
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// lastLoc returns the field name at the end of a validation location.
func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" && s != "query" {
		return s
	}
	return ""
}
