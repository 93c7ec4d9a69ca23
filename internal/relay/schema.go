package relay

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Callback batches are shape-checked before the typed unmarshal so that a
// malformed batch is rejected as a unit instead of half-decoding.
const eventBatchSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["scope", "scopeObjectId", "events"],
  "properties": {
    "nonce": {"type": "string"},
    "scope": {"type": "string"},
    "scopeObjectId": {"type": "integer"},
    "webhookId": {"type": "integer"},
    "events": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["objectType"],
        "properties": {
          "objectType": {"type": "string"},
          "eventType": {"type": "string"},
          "rowId": {"type": "integer"},
          "columnId": {"type": "integer"},
          "timestamp": {"type": "string"}
        }
      }
    }
  }
}`

var eventBatchSchema = mustCompileSchema("smartsheet-callback.json", eventBatchSchemaJSON)

func mustCompileSchema(name, src string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

func validateEventBatch(raw []byte) error {
	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return err
	}
	return eventBatchSchema.Validate(instance)
}
