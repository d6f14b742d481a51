package media

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/media-message-v1.json
var mediaMessageSchemaJSON string

type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("media-message-v1.json",
		strings.NewReader(mediaMessageSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("media-message-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Decode parses data once and checks the message structure, not the kind.
func (v *Validator) Decode(data []byte) (Message, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Message{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := v.schema.Validate(doc); err != nil {
		return Message{}, fmt.Errorf("schema validation failed: %w", err)
	}

	// the schema guarantees an object with string type and optional string data
	obj := doc.(map[string]interface{})
	msg := Message{Type: obj["type"].(string)}
	if payload, ok := obj["data"].(string); ok {
		msg.Data = payload
	}
	return msg, nil
}
