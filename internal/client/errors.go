package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any *APIError with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// GenericErrorMessage is used when the backend gives no usable message.
const GenericErrorMessage = "Something went wrong. Please try again."

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// errorBody accepts both the structured {"error":{...}} envelope and a flat
// {"message": "..."} body.
type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Error != nil {
			apiErr.Code = eb.Error.Code
			apiErr.Message = eb.Error.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = eb.Message
		}
	}
	if strings.TrimSpace(apiErr.Message) == "" {
		apiErr.Message = GenericErrorMessage
	}
	return apiErr
}
