package deeplynx

import (
	"encoding/json"
	"errors"
)

// ErrorResponse is the body Deep Lynx sends with a failed request.
type ErrorResponse struct {
	IsError bool         `json:"isError"`
	Error   ErrorDetails `json:"error"`
}

// ErrorDetails holds the error message. The service sends it either as a
// plain string or as an object.
type ErrorDetails struct {
	Message    string `json:"error"`
	StatusCode int    `json:"statusCode,omitempty"`
}

func (d *ErrorDetails) UnmarshalJSON(data []byte) error {
	var message string
	if err := json.Unmarshal(data, &message); err == nil {
		d.Message = message
		return nil
	}

	var details struct {
		Error      string `json:"error"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	}
	if err := json.Unmarshal(data, &details); err != nil {
		return err
	}
	d.Message = details.Error
	if d.Message == "" {
		d.Message = details.Message
	}
	d.StatusCode = details.StatusCode
	return nil
}

var ErrorNotFound = errors.New("resource not found")

var ErrorUnauthorized = errors.New("unauthorized")

// ErrorEmptyToken is returned when the token exchange succeeds but carries no token.
var ErrorEmptyToken = errors.New("deep lynx returned an empty access token")
