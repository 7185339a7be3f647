package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/wise004/Edupress-sub001/pkg/errors"
)

// errorBody accepts both the {"error":{code,message}} envelope written by
// our services and the flat {"status","error","message"} body produced by
// the course backend.
type errorBody struct {
	Envelope *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	Message string
	Reason  string
}

func (b *errorBody) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if e, ok := raw["error"]; ok {
		if err := json.Unmarshal(e, &b.Envelope); err != nil {
			// Flat bodies carry the reason phrase as a string.
			b.Envelope = nil
			_ = json.Unmarshal(e, &b.Reason)
		}
	}
	if m, ok := raw["message"]; ok {
		_ = json.Unmarshal(m, &b.Message)
	}
	return nil
}

// ParseResponseError consumes and closes a non-2xx response body and maps
// it to an AppError named after the remote service.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var parsed errorBody
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Envelope != nil:
			return mapStatus(resp.StatusCode, parsed.Envelope.Code, parsed.Envelope.Message, serviceName)
		case parsed.Message != "" || parsed.Reason != "":
			msg := parsed.Message
			if msg == "" {
				msg = parsed.Reason
			}
			return mapStatus(resp.StatusCode, "", msg, serviceName)
		}
	}

	return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(body))
}

func mapStatus(status int, code, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName+" resource", message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message)
	default:
		if code == "" {
			code = http.StatusText(status)
		}
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}
