// Package guardschema generates and validates the JSON Schema for the
// Guard parse-tree wire format (dsl.RulesFile), the way the teacher's
// internal/plugin/schema.go does for its plugin manifest type.
package guardschema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jsonschemaval "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/openguard-dsl/guard/internal/dsl"
)

// Generate reflects a JSON Schema document for the parse-tree format
// from dsl.RulesFile's Go type.
func Generate() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&dsl.RulesFile{})
	schema.Title = "Guard parse tree"
	schema.Description = "Schema for the Guard parse-tree JSON/YAML serialization"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("INTERNAL").Wrapf(err, "marshaling generated schema")
	}
	out = append(out, '\n')
	return out, nil
}

// Validate compiles schemaJSON and checks that doc (already-decoded
// parse-tree JSON, e.g. via json.Unmarshal into any) conforms to it.
func Validate(schemaJSON []byte, doc any) error {
	compiler := jsonschemaval.NewCompiler()
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return oops.Code("INTERNAL").Wrapf(err, "parsing schema document")
	}
	const resourceName = "guard-parse-tree.json"
	if err := compiler.AddResource(resourceName, schemaDoc); err != nil {
		return oops.Code("INTERNAL").Wrapf(err, "adding schema resource")
	}
	sch, err := compiler.Compile(resourceName)
	if err != nil {
		return oops.Code("INTERNAL").Wrapf(err, "compiling schema")
	}
	if err := sch.Validate(doc); err != nil {
		return oops.Code("VALUE_ERROR").Wrapf(err, "parse-tree document does not conform to schema")
	}
	return nil
}
