package utils

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeAndValidate JSON-decodes the request body into dst and runs struct tag
// validation, returning a single Validation APIError with a field->tag detail map on
// either failure — replacing the teacher's inline `if field == ""` checks for the
// higher-arity picking/split/allocation payloads.
func DecodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return NewError(Validation, "malformed request body")
	}
	if err := validate.Struct(dst); err != nil {
		fieldErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return NewError(Validation, "validation failed")
		}
		details := make(map[string]string, len(fieldErrors))
		for _, fe := range fieldErrors {
			details[fe.Field()] = fe.Tag()
		}
		return NewErrorWithDetails(Validation, "validation failed", details)
	}
	return nil
}
