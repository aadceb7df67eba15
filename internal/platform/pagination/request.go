package pagination

import (
	"fmt"
	"strconv"

	"sns_backend/internal/shared/apperror"
)

// Request is one pagination call as received from a client.
// Page == 0 selects cursor mode.
type Request struct {
	Page   int
	Take   int
	Params Params
}

// NewRequest reads page and take out of params.
// A non-positive take falls back to defaultTake and a take above maxTake is capped.
func NewRequest(params Params, defaultTake, maxTake int) (Request, error) {
	req := Request{Take: defaultTake, Params: params}

	if v, ok := params.Get("page"); ok && v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 0 {
			return Request{}, apperror.Validation(fmt.Sprintf("page must be a non-negative integer: %q", v))
		}
		req.Page = page
	}
	if v, ok := params.Get("take"); ok && v != "" {
		take, err := strconv.Atoi(v)
		if err != nil {
			return Request{}, apperror.Validation(fmt.Sprintf("take must be an integer: %q", v))
		}
		if take > 0 {
			req.Take = take
		}
	}
	if maxTake > 0 && req.Take > maxTake {
		req.Take = maxTake
	}
	return req, nil
}

// ParseRequest parses a raw query string into a Request.
func ParseRequest(rawQuery string, defaultTake, maxTake int) (Request, error) {
	params, err := ParseQuery(rawQuery)
	if err != nil {
		return Request{}, err
	}
	return NewRequest(params, defaultTake, maxTake)
}

// Limits is the take policy of one deployment.
type Limits struct {
	DefaultTake int
	MaxTake     int
}

// Parse parses a raw query string under l.
func (l Limits) Parse(rawQuery string) (Request, error) {
	return ParseRequest(rawQuery, l.DefaultTake, l.MaxTake)
}
