package jwtmw

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		scheme  Scheme
		want    string
		wantErr bool
	}{
		{"bearer", "Bearer abc", SchemeBearer, "abc", false},
		{"basic", "Basic dXNlcjpwYXNz", SchemeBasic, "dXNlcjpwYXNz", false},
		{"scheme mismatch", "Basic abc", SchemeBearer, "", true},
		{"lowercase scheme", "bearer abc", SchemeBearer, "", true},
		{"no space", "Bearerabc", SchemeBearer, "", true},
		{"three parts", "Bearer a b", SchemeBearer, "", true},
		{"empty token", "Bearer ", SchemeBearer, "", true},
		{"empty header", "", SchemeBearer, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ExtractToken(tt.header, tt.scheme)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedHeader)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeBasic(t *testing.T) {
	t.Parallel()

	enc := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	email, password, err := DecodeBasic(enc("a@example.com:secret123"))
	assert.NoError(t, err)
	assert.Equal(t, "a@example.com", email)
	assert.Equal(t, "secret123", password)

	email, password, err = DecodeBasic(enc("a@example.com:pa:ss:word"))
	assert.NoError(t, err)
	assert.Equal(t, "a@example.com", email)
	assert.Equal(t, "pa:ss:word", password)

	for _, bad := range []string{"%%%", enc("no-colon"), enc(":pw"), enc("a@example.com:"), enc(":")} {
		_, _, err := DecodeBasic(bad)
		assert.ErrorIs(t, err, ErrMalformedHeader, bad)
	}
}
