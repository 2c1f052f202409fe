package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	producterrors "github.com/abgdnv/gocatalog/internal/product/errors"
	"github.com/go-playground/validator/v10"
)

const invalidBodyMessage = "Request body must be a valid JSON object"

// ValidationMode selects which fields a payload must carry.
type ValidationMode int

const (
	// ModeCreate requires every mandatory field.
	ModeCreate ValidationMode = iota
	// ModeUpdate checks only the fields present in the payload.
	ModeUpdate
)

// fieldRule describes one payload field. Rules are checked in slice order and the first failure wins.
type fieldRule struct {
	field    string
	required bool
	isType   func(v any) bool
	tag      string // validator tag applied to the value once its type is right
	message  string
}

var productRules = []fieldRule{
	{field: "name", required: true, isType: isString, tag: "required", message: "Name is required and must be a string"},
	{field: "description", required: true, isType: isString, tag: "required", message: "Description is required and must be a string"},
	{field: "price", required: true, isType: isNumber, tag: "gte=0", message: "Price is required and must be a non-negative number"},
	{field: "category", required: true, isType: isString, tag: "required", message: "Category is required and must be a string"},
	{field: "inStock", required: false, isType: isBool, message: "InStock must be a boolean"},
}

// ProductValidator checks product payloads before they reach the handlers.
type ProductValidator struct {
	validate *validator.Validate
	respond  func(w http.ResponseWriter, r *http.Request, err error)
}

// NewProductValidator creates a ProductValidator that reports failures through the error responder.
func NewProductValidator(logger *slog.Logger) *ProductValidator {
	return &ProductValidator{
		validate: validator.New(),
		respond:  RespondError(logger),
	}
}

// Middleware validates the request body for the given mode.
// The body is handed to the next handler unchanged.
func (v *ProductValidator) Middleware(mode ValidationMode) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					v.respond(w, r, producterrors.NewValidation(fmt.Sprintf("Request body must not exceed %d bytes", tooLarge.Limit)))
					return
				}
				v.respond(w, r, producterrors.NewValidation(invalidBodyMessage))
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			if err := v.Validate(body, mode); err != nil {
				v.respond(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Validate checks a raw JSON payload and returns the first violation as a ValidationError.
func (v *ProductValidator) Validate(body []byte, mode ValidationMode) error {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return producterrors.NewValidation(invalidBodyMessage)
	}

	for _, rule := range productRules {
		// encoding/json fills struct fields case-insensitively, so "Price" would bypass the rule.
		for key := range payload {
			if key != rule.field && strings.EqualFold(key, rule.field) {
				return producterrors.NewValidation(rule.message)
			}
		}

		value, present := payload[rule.field]
		if !present || value == nil {
			if rule.required && mode == ModeCreate {
				return producterrors.NewValidation(rule.message)
			}
			continue
		}
		if !rule.isType(value) {
			return producterrors.NewValidation(rule.message)
		}
		if rule.tag != "" {
			if err := v.validate.Var(value, rule.tag); err != nil {
				return producterrors.NewValidation(rule.message)
			}
		}
	}
	return nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isNumber(v any) bool {
	_, ok := v.(float64)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}
