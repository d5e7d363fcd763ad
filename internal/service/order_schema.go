// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// orderSchemaJSON describes an order submission. Every property is always
// present in the marshalled input, so required text uses minLength rather
// than "required" and failures carry an instance location.
const orderSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "customer_name":      {"type": "string", "minLength": 1, "maxLength": 200},
    "customer_email":     {"type": "string", "minLength": 1, "maxLength": 254, "format": "email"},
    "customer_phone":     {"type": "string", "minLength": 1, "pattern": "^\\+?[0-9][0-9 ()-]{6,19}$"},
    "customer_company":   {"type": "string", "maxLength": 200},
    "country_id":         {"type": "string", "maxLength": 16},
    "city_id":            {"type": "string", "maxLength": 16},
    "port_id":            {"type": "string", "maxLength": 16},
    "delivery_method_id": {"type": "string", "maxLength": 32},
    "notes":              {"type": "string", "maxLength": 5000},
    "language_code":      {"type": "string", "maxLength": 10},
    "items": {
      "type": "array",
      "maxItems": 50,
      "items": {
        "type": "object",
        "properties": {
          "product_id":  {"type": "string"},
          "description": {"type": "string", "maxLength": 500},
          "quantity":    {"type": "number", "exclusiveMinimum": 0},
          "unit":        {"type": "string", "maxLength": 20}
        }
      }
    }
  }
}`

const orderSchemaURL = "https://detagroup.local/schemas/order.schema.json"

var orderSchema = compileOrderSchema()

func compileOrderSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true
	if err := c.AddResource(orderSchemaURL, strings.NewReader(orderSchemaJSON)); err != nil {
		panic(fmt.Sprintf("order schema load failed: %v", err))
	}
	return c.MustCompile(orderSchemaURL)
}

// keywordMessages maps a failing schema keyword to an i18n key.
var keywordMessages = map[string]string{
	"minLength":        "validation.required",
	"maxLength":        "validation.max_length",
	"maxItems":         "validation.max_length",
	"format":           "validation.email",
	"pattern":          "validation.phone",
	"exclusiveMinimum": "validation.invalid",
	"type":             "validation.invalid",
}

// validateOrderSchema checks in against the order schema and returns a
// *ValidationError keyed by field path (items.0.quantity).
func validateOrderSchema(in OrderInput) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	err = orderSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var schemaErr *jsonschema.ValidationError
	if !errors.As(err, &schemaErr) {
		return err
	}

	verr := NewValidationError()
	collectSchemaErrors(schemaErr, verr)
	if !verr.HasErrors() {
		verr.Add("order", "validation.invalid")
	}
	return verr
}

func collectSchemaErrors(e *jsonschema.ValidationError, verr *ValidationError) {
	if len(e.Causes) > 0 {
		for _, c := range e.Causes {
			collectSchemaErrors(c, verr)
		}
		return
	}

	field := strings.ReplaceAll(strings.TrimPrefix(e.InstanceLocation, "/"), "/", ".")
	if field == "" {
		field = "order"
	}
	keyword := e.KeywordLocation
	if i := strings.LastIndex(keyword, "/"); i >= 0 {
		keyword = keyword[i+1:]
	}
	msg, ok := keywordMessages[keyword]
	if !ok {
		msg = "validation.invalid"
	}
	verr.Add(field, msg)
}
