package llmgateway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

const samplePersonSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "age": {"type": "integer"}
  },
  "required": ["name"]
}`

func TestValidateAgainstSchema_EmptySchemaAlwaysPasses(t *testing.T) {
	assert.NoError(t, validateAgainstSchema("", "not even json"))
}

func TestValidateAgainstSchema_Valid(t *testing.T) {
	err := validateAgainstSchema(samplePersonSchema, `{"name": "Alice", "age": 30}`)
	assert.NoError(t, err)
}

func TestValidateAgainstSchema_MissingRequiredField(t *testing.T) {
	err := validateAgainstSchema(samplePersonSchema, `{"age": 30}`)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaViolation))
}

func TestValidateAgainstSchema_NotJSON(t *testing.T) {
	err := validateAgainstSchema(samplePersonSchema, `this is prose, not json`)
	assert.Error(t, err)
}

func TestValidateAgainstSchema_InvalidSchemaDocument(t *testing.T) {
	err := validateAgainstSchema(`not a schema`, `{"name": "Alice"}`)
	assert.Error(t, err)
}
