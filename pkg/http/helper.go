package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"roomsync/pkg/config"
	apperrors "roomsync/pkg/errors"
	"strconv"
)

func ExtractLimit(r *http.Request) (int, error) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}
	return config.NormalizePaginationLimit(limit), nil
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
// An empty body leaves dst untouched when allowEmpty is set.
func DecodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.TooLarge(int(maxErr.Limit))
		}
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	return nil
}
