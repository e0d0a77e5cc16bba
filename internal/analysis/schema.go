package analysis

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Conformance lists the ways a raw reply deviates from the rubric's output
// contract. An empty result means the reply is fully conformant. It never
// affects whether the reply is used.
func Conformance(raw string) []string {
	candidate, ok := extractObject(raw)
	if !ok {
		return []string{"no JSON object found"}
	}

	s, err := compiledSchema()
	if err != nil {
		return []string{fmt.Sprintf("schema unavailable: %v", err)}
	}

	result, err := s.Validate(gojsonschema.NewStringLoader(candidate))
	if err != nil {
		return []string{fmt.Sprintf("invalid JSON: %v", err)}
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}
	return issues
}
