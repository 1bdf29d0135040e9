package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vyrodovalexey/product-api/internal/auth"
)

func TestNewAPIKeyAuthenticator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{
			name:    "valid key",
			key:     "secret-key-123",
			wantErr: false,
		},
		{
			name:    "empty key returns error",
			key:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Act
			authenticator, err := auth.NewAPIKeyAuthenticator(tt.key)

			// Assert
			if tt.wantErr {
				if !errors.Is(err, auth.ErrEmptyAPIKey) {
					t.Errorf("NewAPIKeyAuthenticator() error = %v, want ErrEmptyAPIKey", err)
				}
				if authenticator != nil {
					t.Error("NewAPIKeyAuthenticator() returned non-nil on error")
				}
				return
			}

			if err != nil {
				t.Errorf("NewAPIKeyAuthenticator() error = %v, want nil", err)
			}
			if authenticator == nil {
				t.Error("NewAPIKeyAuthenticator() returned nil, want non-nil")
			}
		})
	}
}

func TestAPIKeyAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	authenticator, err := auth.NewAPIKeyAuthenticator("valid-key-123")
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}

	tests := []struct {
		name      string
		header    *string
		wantErrIs error
	}{
		{
			name:      "no X-API-Key header returns ErrUnauthenticated",
			header:    nil,
			wantErrIs: auth.ErrUnauthenticated,
		},
		{
			name:      "empty X-API-Key header returns ErrUnauthenticated",
			header:    strPtr(""),
			wantErrIs: auth.ErrUnauthenticated,
		},
		{
			name:      "wrong key returns ErrInvalidAPIKey",
			header:    strPtr("wrong-key"),
			wantErrIs: auth.ErrInvalidAPIKey,
		},
		{
			name:      "prefix of the key is rejected",
			header:    strPtr("valid-key"),
			wantErrIs: auth.ErrInvalidAPIKey,
		},
		{
			name:      "key with different case is rejected",
			header:    strPtr("VALID-KEY-123"),
			wantErrIs: auth.ErrInvalidAPIKey,
		},
		{
			name:   "valid key authenticates",
			header: strPtr("valid-key-123"),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
			if tt.header != nil {
				req.Header.Set(auth.APIKeyHeader, *tt.header)
			}

			// Act
			info, authErr := authenticator.Authenticate(req)

			// Assert
			if tt.wantErrIs != nil {
				if !errors.Is(authErr, tt.wantErrIs) {
					t.Errorf("Authenticate() error = %v, want errors.Is %v", authErr, tt.wantErrIs)
				}
				if info != nil {
					t.Errorf("Authenticate() info = %+v, want nil", info)
				}
				return
			}

			if authErr != nil {
				t.Fatalf("Authenticate() error = %v, want nil", authErr)
			}
			if info.Method != auth.AuthMethodAPIKey {
				t.Errorf("Method = %q, want %q", info.Method, auth.AuthMethodAPIKey)
			}
			if info.Subject != auth.APIKeySubject {
				t.Errorf("Subject = %q, want %q", info.Subject, auth.APIKeySubject)
			}
		})
	}
}

func TestAPIKeyAuthenticator_HeaderIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	authenticator, err := auth.NewAPIKeyAuthenticator("k")
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header["X-Api-Key"] = []string{"k"}

	if _, err := authenticator.Authenticate(req); err != nil {
		t.Errorf("Authenticate() error = %v, want nil", err)
	}
}

func TestAPIKeyAuthenticator_Method(t *testing.T) {
	t.Parallel()

	authenticator, err := auth.NewAPIKeyAuthenticator("key")
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}

	if authenticator.Method() != auth.AuthMethodAPIKey {
		t.Errorf("Method() = %q, want %q", authenticator.Method(), auth.AuthMethodAPIKey)
	}
}

func TestAPIKeyHeader_Constant(t *testing.T) {
	t.Parallel()

	if auth.APIKeyHeader != "X-API-Key" {
		t.Errorf("APIKeyHeader = %q, want %q", auth.APIKeyHeader, "X-API-Key")
	}
}

func strPtr(s string) *string { return &s }
