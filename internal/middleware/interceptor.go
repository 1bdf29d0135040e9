package middleware

import (
	"net/http"

	"github.com/vyrodovalexey/product-api/internal/apperr"
)

// Interceptor runs before a route handler. It either returns the request to
// continue with, usually carrying new context values, or an error that ends
// the request.
type Interceptor func(r *http.Request) (*http.Request, error)

// Pipeline runs interceptors in order and then handler. The first error from
// an interceptor or the handler is rendered by translator; later stages do
// not run. The error kind is recorded for the access log.
func Pipeline(
	translator *apperr.Translator,
	handler apperr.HandlerFunc,
	interceptors ...Interceptor,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fail := func(r *http.Request, err error) {
			noteErrorKind(r, apperr.From(err).Kind)
			translator.Write(w, r, err)
		}

		for _, intercept := range interceptors {
			next, err := intercept(r)
			if err != nil {
				fail(r, err)
				return
			}
			r = next
		}

		if err := handler(w, r); err != nil {
			fail(r, err)
		}
	})
}
