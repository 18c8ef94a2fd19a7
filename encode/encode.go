package encode

import (
	"encoding/json"
	"io"
)

// JSONIndented encodes a value into a writer with a single space indentation
func JSONIndented(v interface{}, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", " ")

	return encoder.Encode(v)
}

type (
	// Status is the body returned by mutating mock endpoints
	Status struct {
		Status string `json:"status"`
	}

	// ErrorBody is the body returned on failed requests
	ErrorBody struct {
		Error string `json:"error"`
	}
)

// OK returns the standard success body
func OK() Status {
	return Status{Status: "ok"}
}

// Error wraps a message into the standard error body
func Error(msg string) ErrorBody {
	return ErrorBody{Error: msg}
}
