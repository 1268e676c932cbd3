package report

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// reportSchema is the minimal shape a report must have before conversion is
// attempted. Everything else is optional; a report that is just a target
// section still converts to a degenerate bundle.
const reportSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["target"],
	"properties": {
		"target": {
			"type": "object",
			"required": ["category"],
			"properties": {
				"category": {"type": "string"}
			}
		}
	}
}`

var compiledSchema = gojsonschema.NewStringLoader(reportSchema)

func validateShape(data []byte) error {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("parsing report: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("not a valid sandbox report: %s", strings.Join(problems, "; "))
	}
	return nil
}
