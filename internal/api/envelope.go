package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hostelctl/hostelctl/internal/model"
)

type listEnvelope[T any] struct {
	Pagination *model.Pagination `json:"pagination"`
	Message    string            `json:"message"`
	Data       []T               `json:"data"`
}

type itemEnvelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message"`
}

type messageEnvelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// failed reports an explicit success=false; an absent flag counts as success.
func failed(success *bool) bool {
	return success != nil && !*success
}

type errorEnvelope struct {
	Error *struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Message    json.RawMessage `json:"message"`
	Timestamp  string          `json:"timestamp"`
	Path       string          `json:"path"`
	StatusCode int             `json:"statusCode"`
	Success    bool            `json:"success"`
}

// decodeError turns a non-2xx response body into a ServerError or, for
// 400/422 responses that name fields, a ValidationError.
func decodeError(status int, body []byte, path string) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &ServerError{Status: status, Message: msg, Path: path}
	}

	if env.StatusCode != 0 {
		status = env.StatusCode
	}
	if env.Path != "" {
		path = env.Path
	}

	messages := decodeMessages(env.Message)
	message := strings.Join(messages, "; ")
	if message == "" {
		message = http.StatusText(status)
	}

	serverErr := &ServerError{
		Status:    status,
		Message:   message,
		Path:      path,
		Timestamp: env.Timestamp,
	}
	if env.Error != nil {
		serverErr.Code = env.Error.Code
		serverErr.Details = env.Error.Details
	}

	if status != http.StatusBadRequest && status != http.StatusUnprocessableEntity {
		return serverErr
	}

	fields := decodeFieldDetails(serverErr.Details)
	if len(fields) == 0 && len(messages) < 2 {
		return serverErr
	}
	if len(fields) == 0 {
		fields = make(map[string]string, len(messages))
		for _, m := range messages {
			name, rest, _ := strings.Cut(m, " ")
			fields[name] = rest
		}
	}

	return &ValidationError{Status: status, Message: message, Fields: fields}
}

// decodeMessages accepts the message as a string or an array of strings.
func decodeMessages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

// decodeFieldDetails reads error.details as either {"field": "message"}
// or [{"field": "...", "message": "..."}].
func decodeFieldDetails(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil && len(asMap) > 0 {
		return asMap
	}

	var asList []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &asList); err == nil && len(asList) > 0 {
		fields := make(map[string]string, len(asList))
		for _, item := range asList {
			if item.Field != "" {
				fields[item.Field] = item.Message
			}
		}
		return fields
	}
	return nil
}
