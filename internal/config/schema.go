package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaID identifies the generated schema.
const SchemaID = "https://github.com/dshills/keyweave/keyboard.schema.json"

// Schema returns the JSON Schema of the keyboard file format.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
		FieldNameTag:   "yaml",
	}

	schema := r.Reflect(&File{})
	schema.ID = SchemaID
	schema.Title = "keyweave keyboard"
	schema.Description = "Keymap, timing and feature options for one keyboard. Written as TOML or YAML."
	return schema
}

// SchemaJSON returns the indented JSON encoding of Schema.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
