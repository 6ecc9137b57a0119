package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Tomlord1122/todo-items/internal/domain"
	"github.com/Tomlord1122/todo-items/internal/filter"
)

// decodeJSONBody decodes the request body into dst, rejecting unknown
// fields. On failure it writes a 400 response and returns false.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err == nil {
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
		respondWithError(w, http.StatusBadRequest, codeInvalidRequest, msg)
	case errors.Is(err, io.ErrUnexpectedEOF):
		respondWithError(w, http.StatusBadRequest, codeInvalidRequest, "Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		respondWithError(w, http.StatusBadRequest, codeValidation, msg,
			domain.FieldError{Field: unmarshalTypeError.Field, Issue: "must be of type " + unmarshalTypeError.Type.String()})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		respondWithError(w, http.StatusBadRequest, codeValidation, fmt.Sprintf("Request body contains unknown field %q", fieldName),
			domain.FieldError{Field: fieldName, Issue: "is not allowed"})
	case errors.Is(err, io.EOF):
		respondWithError(w, http.StatusBadRequest, codeInvalidRequest, "Request body must not be empty")
	default:
		// time.Time fields report layout errors as plain *time.ParseError.
		respondWithError(w, http.StatusBadRequest, codeInvalidRequest, "Request body is invalid: "+err.Error())
	}
	return false
}

// parseID reads a positive integer URL parameter. On failure it writes a 400
// response and returns false.
func parseID(w http.ResponseWriter, r *http.Request, param string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, param), 10, 64)
	if err != nil || id == 0 {
		respondWithError(w, http.StatusBadRequest, codeInvalidRequest, "Invalid "+param+" provided",
			domain.FieldError{Field: param, Issue: "must be a positive integer"})
		return 0, false
	}
	return uint(id), true
}

// parseFilter parses the optional "filter" query parameter. On failure it
// writes a 400 response and returns false.
func parseFilter(w http.ResponseWriter, r *http.Request) (*filter.Filter, bool) {
	f, err := filter.Parse(r.URL.Query().Get("filter"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return nil, false
	}
	return f, true
}
