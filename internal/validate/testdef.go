package validate

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed testdef.schema.json
var testDefSchemaJSON string

// testDefSchema is the compiled JSON Schema for test definition files.
var testDefSchema *jsonschema.Schema

func init() {
	var schemaDoc any
	if err := json.Unmarshal([]byte(testDefSchemaJSON), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded testdef.schema.json: %v", err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("testdef.schema.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add testdef schema resource: %v", err))
	}

	sch, err := compiler.Compile("testdef.schema.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile testdef schema: %v", err))
	}
	testDefSchema = sch
}

// TestFileBytes validates raw test definition YAML against the embedded
// schema, returning one message per violation.
func TestFileBytes(data []byte) []string {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}

	// Round-trip through JSON so yaml.v3 integers compare like JSON numbers.
	jsonCompatible, err := toJSONValue(yamlDoc)
	if err != nil {
		return []string{fmt.Sprintf("converting document: %v", err)}
	}

	if err := testDefSchema.Validate(jsonCompatible); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return []string{fmt.Sprintf("schema: %v", err)}
		}
		var violations []string
		collectSchemaErrors(ve, &violations)
		return violations
	}
	return nil
}
