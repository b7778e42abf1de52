package api

import (
	"fmt"
	"strings"

	"github.com/safar/go-shop-checkout/internal/checkout"
	"github.com/xeipuuv/gojsonschema"
)

const schemaCheckout = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["shipping"],
  "properties": {
    "shipping": {
      "type": "object",
      "required": ["addressLine", "city", "country", "method"],
      "properties": {
        "addressLine": { "type": "string", "maxLength": 255 },
        "city":        { "type": "string", "maxLength": 120 },
        "state":       { "type": "string", "maxLength": 120 },
        "postalCode":  { "type": "string", "maxLength": 32 },
        "country":     { "type": "string", "maxLength": 120 },
        "method":      { "type": "string" }
      },
      "additionalProperties": false
    },
    "couponCode": { "type": ["string", "null"], "maxLength": 64 }
  },
  "additionalProperties": false
}`

var checkoutSchema = gojsonschema.NewStringLoader(schemaCheckout)

// validateSchema returns one FieldError per violation, or nil when body
// conforms.
func validateSchema(schema gojsonschema.JSONLoader, body []byte) ([]checkout.FieldError, error) {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	fields := make([]checkout.FieldError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		fields = append(fields, checkout.FieldError{
			Field:   fieldPath(e),
			Message: e.Description(),
		})
	}
	return fields, nil
}

func fieldPath(e gojsonschema.ResultError) string {
	field := strings.TrimPrefix(e.Field(), "(root)")
	field = strings.TrimPrefix(field, ".")

	if e.Type() == "required" {
		if prop, ok := e.Details()["property"].(string); ok && !strings.HasSuffix(field, prop) {
			if field == "" {
				return prop
			}
			return field + "." + prop
		}
	}
	return field
}
