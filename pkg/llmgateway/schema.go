package llmgateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// validateAgainstSchema compiles schemaJSON and validates content (expected
// to itself be a JSON document) against it, grounded on goadesign-goa-ai's
// use of santhosh-tekuri/jsonschema/v6 to validate LLM structured output
// before accepting it.
func validateAgainstSchema(schemaJSON, content string) error {
	if strings.TrimSpace(schemaJSON) == "" {
		return nil
	}

	compiler := jsonschema.NewCompiler()
	var schemaDoc any
	if err := json.Unmarshal([]byte(schemaJSON), &schemaDoc); err != nil {
		return fmt.Errorf("llmgateway: invalid response schema: %w", err)
	}
	if err := compiler.AddResource("response-schema.json", schemaDoc); err != nil {
		return fmt.Errorf("llmgateway: invalid response schema: %w", err)
	}
	schema, err := compiler.Compile("response-schema.json")
	if err != nil {
		return fmt.Errorf("llmgateway: invalid response schema: %w", err)
	}

	var instance any
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	if err := dec.Decode(&instance); err != nil {
		return fmt.Errorf("llmgateway: response content is not valid JSON: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("llmgateway: %w: %v", ErrSchemaViolation, err)
	}
	return nil
}
