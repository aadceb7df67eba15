package jwtmw

import (
	"encoding/base64"
	"errors"
	"strings"
)

// Scheme is the Authorization header scheme.
type Scheme string

const (
	SchemeBasic  Scheme = "Basic"
	SchemeBearer Scheme = "Bearer"
)

// ErrMalformedHeader is returned for any Authorization header that does not parse.
var ErrMalformedHeader = errors.New("malformed authorization header")

// ExtractToken returns the credential of an Authorization header "<scheme> <token>".
func ExtractToken(header string, scheme Scheme) (string, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != string(scheme) || parts[1] == "" {
		return "", ErrMalformedHeader
	}
	return parts[1], nil
}

// DecodeBasic decodes a Basic credential into email and password.
// The credential splits on its first colon, so a password may contain colons.
func DecodeBasic(token string) (email, password string, err error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", "", ErrMalformedHeader
	}
	email, password, ok := strings.Cut(string(raw), ":")
	if !ok || email == "" || password == "" {
		return "", "", ErrMalformedHeader
	}
	return email, password, nil
}
