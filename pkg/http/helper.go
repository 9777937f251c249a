package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	apperrors "staylock/pkg/errors"
)

// DecodeJSON decodes the request body into dst and rejects unknown fields.
// An empty body decodes to the zero value when allowEmpty is set.
func DecodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.InvalidInput("Invalid request body: " + err.Error())
	}
	return nil
}

// QueryInt returns (0, false, nil) when the parameter is absent.
func QueryInt(r *http.Request, name string) (int, bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, false, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, true, nil
}

func RequireQuery(r *http.Request, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v := r.URL.Query().Get(name)
		if v == "" {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}

	if len(missing) > 0 {
		return nil, apperrors.InvalidInput("missing required query parameters").
			WithDetails(map[string]any{"missing": missing})
	}
	return values, nil
}
