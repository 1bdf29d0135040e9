// Package model defines data structures used throughout the application.
package model

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Field-level validation messages returned to API clients.
const (
	MsgNameRequired        = "Name is required"
	MsgDescriptionRequired = "Description is required"
	MsgPriceRequired       = "Valid price is required"
	MsgPriceNegative       = "Price cannot be negative"
	MsgCategoryRequired    = "Category is required"
	MsgInStockInvalid      = "In-stock flag must be a boolean"
)

// Product represents a catalog product as stored and returned by the API.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	InStock     bool      `json:"inStock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductInput is the client-supplied payload for create and update.
// Pointer fields distinguish an omitted field from its zero value.
type ProductInput struct {
	Name        *string  `json:"name" validate:"required,notblank"`
	Description *string  `json:"description" validate:"required,notblank"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    *string  `json:"category" validate:"required,notblank"`
	InStock     *bool    `json:"inStock"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// Validate checks the payload and returns a *ValidationError listing every
// violated field, or nil when the payload is acceptable.
func (in *ProductInput) Validate() error {
	if in == nil {
		return NewValidationError(MsgNameRequired, MsgDescriptionRequired, MsgPriceRequired, MsgCategoryRequired)
	}

	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, FieldMessage(fe.Field(), fe.Tag()))
	}

	return NewValidationError(messages...)
}

// Normalize trims surrounding whitespace from the text fields that are
// stored trimmed.
func (in *ProductInput) Normalize() {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
	if in.Category != nil {
		trimmed := strings.TrimSpace(*in.Category)
		in.Category = &trimmed
	}
}

// InStockOrDefault returns the supplied in-stock flag, defaulting to true.
func (in *ProductInput) InStockOrDefault() bool {
	if in.InStock == nil {
		return true
	}
	return *in.InStock
}

// Apply copies every supplied field of the input onto p.
func (in *ProductInput) Apply(p *Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
	}
}

// FieldMessage maps a failed field (by JSON name) and validation tag to the
// message shown to clients. The "type" tag marks a JSON type mismatch.
func FieldMessage(field, tag string) string {
	switch field {
	case "name":
		return MsgNameRequired
	case "description":
		return MsgDescriptionRequired
	case "price":
		if tag == "gte" {
			return MsgPriceNegative
		}
		return MsgPriceRequired
	case "category":
		return MsgCategoryRequired
	case "inStock":
		return MsgInStockInvalid
	default:
		return "Invalid value for " + field
	}
}

// ValidationError lists field-level violations of a product payload.
type ValidationError struct {
	Messages []string
}

// NewValidationError builds a ValidationError, dropping duplicate messages
// while keeping their first-seen order.
func NewValidationError(messages ...string) *ValidationError {
	seen := make(map[string]bool, len(messages))
	unique := make([]string, 0, len(messages))
	for _, m := range messages {
		if seen[m] {
			continue
		}
		seen[m] = true
		unique = append(unique, m)
	}
	return &ValidationError{Messages: unique}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "product validation failed: " + strings.Join(e.Messages, "; ")
}
