package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
)

// APIKeyHeader is the HTTP header name for API key authentication.
const APIKeyHeader = "X-API-Key"

// APIKeySubject is the subject recorded for requests carrying the shared key.
const APIKeySubject = "api-client"

// ErrEmptyAPIKey is returned when the authenticator is built without a key.
var ErrEmptyAPIKey = errors.New("apikey auth: key must not be empty")

// APIKeyAuthenticator authenticates requests carrying the shared secret in
// the X-API-Key header.
type APIKeyAuthenticator struct {
	key []byte
}

// NewAPIKeyAuthenticator creates an authenticator for the given shared key.
func NewAPIKeyAuthenticator(key string) (*APIKeyAuthenticator, error) {
	if key == "" {
		return nil, ErrEmptyAPIKey
	}

	return &APIKeyAuthenticator{key: []byte(key)}, nil
}

// Authenticate compares the X-API-Key header with the shared key in
// constant time.
func (a *APIKeyAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	apiKey := r.Header.Get(APIKeyHeader)
	if apiKey == "" {
		return nil, ErrUnauthenticated
	}

	if subtle.ConstantTimeCompare([]byte(apiKey), a.key) != 1 {
		return nil, ErrInvalidAPIKey
	}

	return &AuthInfo{
		Method:  AuthMethodAPIKey,
		Subject: APIKeySubject,
	}, nil
}

// Method returns the authentication method type.
func (a *APIKeyAuthenticator) Method() AuthMethod {
	return AuthMethodAPIKey
}
