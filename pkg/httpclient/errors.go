package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// errorBody covers the two error envelopes the storefront talks to: the
// backend API's {"success":false,"message":...} and the
// {"error":{"code","message"}} envelope written by pkg/httputil.
type errorBody struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var body errorBody
	if json.Unmarshal(bodyBytes, &body) == nil {
		switch {
		case body.Error != nil:
			return mapDownstreamError(resp.StatusCode, body.Error.Code, body.Error.Message, serviceName)
		case body.Message != "":
			return mapDownstreamError(resp.StatusCode, "", body.Message, serviceName)
		}
	}

	text := strings.TrimSpace(string(bodyBytes))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return mapDownstreamError(resp.StatusCode, "", text, serviceName)
}

// mapDownstreamError translates a downstream status code into an AppError
// that keeps the downstream message readable for the end user.
func mapDownstreamError(status int, code, message, serviceName string) error {
	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{Code: "NOT_FOUND", Message: message, Status: status, Err: apperrors.ErrNotFound}
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(message)
	case status == http.StatusConflict:
		return apperrors.Conflict(message)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case status == http.StatusGone:
		return apperrors.Gone(message)
	case status == http.StatusUnprocessableEntity:
		if code == "" {
			code = "LIMIT_EXCEEDED"
		}
		return apperrors.LimitExceeded(code, message)
	case status == http.StatusServiceUnavailable:
		return &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: fmt.Sprintf("%s: %s", serviceName, message),
			Status:  http.StatusServiceUnavailable,
			Err:     apperrors.ErrServiceUnavail,
		}
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message)
	default:
		if code == "" {
			code = "HTTP_" + fmt.Sprint(status)
		}
		return &apperrors.AppError{Code: code, Message: message, Status: status}
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
