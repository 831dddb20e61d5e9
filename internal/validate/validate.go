// Package validate checks extracted payloads against expected values and
// JSON Schema documents.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// SchemaError reports JSON Schema violations, one message per violated rule.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "schema validation failed: " + strings.Join(e.Violations, "; ")
}

// MissingKeyError reports an expected key absent from the payload.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing expected key %q in response", e.Key)
}

// MismatchError reports an expected key whose value differs from the payload.
type MismatchError struct {
	Key  string
	Want any
	Got  any
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s=%v, got %v", e.Key, e.Want, e.Got)
}

// Value checks an extracted payload against an expected-value mapping and a
// schema document, either of which may be empty. Both checks run when both
// are supplied; either failing fails the turn. An empty schema and empty
// expectations together mean extraction success was the only requirement.
//
// Value is pure: re-validating the same inputs always yields the same verdict.
func Value(extracted any, expected map[string]any, schema map[string]any) error {
	var errs []error

	if len(schema) > 0 {
		if err := againstSchema(extracted, schema); err != nil {
			errs = append(errs, err)
		}
	}

	if len(expected) > 0 {
		if err := againstExpected(extracted, expected); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// againstSchema compiles the schema document and validates extracted against it.
func againstSchema(extracted any, schema map[string]any) error {
	schemaDoc, err := toJSONValue(schema)
	if err != nil {
		return fmt.Errorf("normalizing schema document: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", schemaDoc); err != nil {
		return fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	if err := compiled.Validate(extracted); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return &SchemaError{Violations: []string{err.Error()}}
		}
		var violations []string
		collectSchemaErrors(ve, &violations)
		return &SchemaError{Violations: violations}
	}
	return nil
}

// againstExpected checks that every expected key is present in the payload
// with a deeply equal value. Expected values come from YAML, so they are
// normalized through JSON first (an int expectation must match the float64
// the JSON decoder produced).
func againstExpected(extracted any, expected map[string]any) error {
	payload, ok := extracted.(map[string]any)
	if !ok {
		return fmt.Errorf("response payload is %T, not a JSON object", extracted)
	}

	for key, want := range expected {
		got, present := payload[key]
		if !present {
			return &MissingKeyError{Key: key}
		}
		normalized, err := toJSONValue(want)
		if err != nil {
			return fmt.Errorf("normalizing expected value for %q: %w", key, err)
		}
		if !reflect.DeepEqual(normalized, got) {
			return &MismatchError{Key: key, Want: want, Got: got}
		}
	}
	return nil
}

func collectSchemaErrors(ve *jsonschema.ValidationError, violations *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*violations = append(*violations, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, violations)
	}
}

// toJSONValue round-trips v through encoding/json so that YAML-decoded
// values compare equal to JSON-decoded ones.
func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
