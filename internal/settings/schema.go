package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "master_account_alias": {"type": "string", "minLength": 1},
    "accounts": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "account_id": {"type": "string"},
          "secret_key": {"type": "string"},
          "publishable_key": {"type": "string"},
          "webhook_signing_secret": {"type": "string"},
          "country": {"type": ["string", "null"]}
        },
        "additionalProperties": false
      }
    },
    "master_custom_payment_methods": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "skip_sync_non_master_invoice": {"type": "boolean"},
    "propagate_tax_to_processing": {"type": "boolean"}
  },
  "required": ["accounts"]
}`

type validator struct {
	schema *jsonschema.Schema
}

func newValidator() (*validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("runtime-config.json", strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("settings.newValidator: %w", err)
	}
	schema, err := compiler.Compile("runtime-config.json")
	if err != nil {
		return nil, fmt.Errorf("settings.newValidator: %w", err)
	}
	return &validator{schema: schema}, nil
}

func (v *validator) validate(raw []byte) error {
	var payload any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := v.schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}
