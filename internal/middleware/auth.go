package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/product-api/internal/apperr"
	"github.com/vyrodovalexey/product-api/internal/auth"
)

// Auth failure reasons recorded on product_auth_failures_total.
const (
	authReasonMissing = "missing"
	authReasonInvalid = "invalid"
)

// Authenticate returns an interceptor that rejects requests the
// authenticator does not accept. Accepted requests continue with the
// resulting AuthInfo in their context.
func Authenticate(authenticator auth.Authenticator, logger *zap.Logger) Interceptor {
	return func(r *http.Request) (*http.Request, error) {
		info, err := authenticator.Authenticate(r)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				authFailuresTotal.WithLabelValues(authReasonMissing).Inc()
				return nil, apperr.Authentication(apperr.MsgAPIKeyRequired, err)
			}

			authFailuresTotal.WithLabelValues(authReasonInvalid).Inc()
			return nil, apperr.Authentication(apperr.MsgInvalidAPIKey, err)
		}

		noteSubject(r, info.Subject)
		logger.Debug("request authenticated",
			zap.String("method", string(info.Method)),
			zap.String("subject", info.Subject),
			zap.String("path", r.URL.Path),
		)

		return r.WithContext(auth.WithAuthInfo(r.Context(), info)), nil
	}
}
