package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vyrodovalexey/product-api/internal/apperr"
	"github.com/vyrodovalexey/product-api/internal/model"
)

// MaxBodyBytes caps the size of product payloads.
const MaxBodyBytes = 1 << 20

// MsgInvalidBody is returned when the payload is not a JSON object.
const MsgInvalidBody = "Invalid request body"

const productInputKey contextKey = "product_input"

var errTrailingData = errors.New("unexpected data after JSON object")

// ValidateProduct returns an interceptor that decodes the JSON body into a
// model.ProductInput, trims it, and checks it against the product rules.
// Valid input is stored in the request context for ProductInputFromContext.
func ValidateProduct() Interceptor {
	return func(r *http.Request) (*http.Request, error) {
		input, err := decodeProductInput(r)
		if err != nil {
			validationFailuresTotal.Inc()
			return nil, err
		}

		ctx := context.WithValue(r.Context(), productInputKey, input)
		return r.WithContext(ctx), nil
	}
}

// ProductInputFromContext returns the payload stored by ValidateProduct.
func ProductInputFromContext(ctx context.Context) (*model.ProductInput, bool) {
	input, ok := ctx.Value(productInputKey).(*model.ProductInput)
	return input, ok && input != nil
}

func decodeProductInput(r *http.Request) (*model.ProductInput, error) {
	var input model.ProductInput
	var messages []string

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	err := dec.Decode(&input)

	// A type mismatch does not stop decoding, so the remaining fields are
	// still checked below.
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		// Empty body: every required field is reported below.
	case err == nil:
		if err := expectEOF(dec); err != nil {
			return nil, err
		}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		if err := expectEOF(dec); err != nil {
			return nil, err
		}
		messages = append(messages, model.FieldMessage(typeErr.Field, "type"))
	default:
		return nil, bodyError(err)
	}

	input.Normalize()

	var vErr *model.ValidationError
	if err := input.Validate(); err != nil {
		if !errors.As(err, &vErr) {
			return nil, err
		}
		messages = append(messages, vErr.Messages...)
	}

	if len(messages) > 0 {
		return nil, model.NewValidationError(messages...)
	}

	return &input, nil
}

// expectEOF rejects anything but whitespace after the first JSON value.
func expectEOF(dec *json.Decoder) error {
	err := dec.Decode(&struct{}{})
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return bodyError(errTrailingData)
	default:
		return bodyError(err)
	}
}

func bodyError(err error) *apperr.Error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &apperr.Error{Kind: apperr.KindPayloadTooLarge, Message: apperr.MsgPayloadTooLarge, Err: err}
	}
	return &apperr.Error{Kind: apperr.KindValidation, Message: MsgInvalidBody, Err: err}
}
