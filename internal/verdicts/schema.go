package verdicts

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const verdictSetSchemaConstant = `{
  "type": "object",
  "required": ["verdicts"],
  "properties": {
    "verdicts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["rule", "verdict"],
        "properties": {
          "category": {"type": "string"},
          "rule": {"type": "string"},
          "verdict": {"type": "string"},
          "reasoning": {"type": "string"}
        }
      }
    },
    "summary": {"type": "string"}
  }
}`

const insightsSchemaConstant = `{
  "type": "object",
  "properties": {
    "what_went_well": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "pattern": {"type": "string"},
          "evidence": {"type": "string"}
        }
      }
    },
    "what_to_improve": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "pattern": {"type": "string"},
          "evidence": {"type": "string"}
        }
      }
    },
    "notable": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "observation": {"type": "string"},
          "evidence": {"type": "string"}
        }
      }
    }
  }
}`

const (
	schemaViolationTemplateConstant = "payload does not match expected shape: %s"
	schemaViolationJoinConstant     = "; "
)

var (
	verdictSetSchemaLoader = gojsonschema.NewStringLoader(verdictSetSchemaConstant)
	insightsSchemaLoader   = gojsonschema.NewStringLoader(insightsSchemaConstant)
)

// validateAgainstSchema checks a recovered JSON document against the loaded
// schema before it is decoded into typed structures.
func validateAgainstSchema(schemaLoader gojsonschema.JSONLoader, documentBytes []byte) error {
	validationResult, validationError := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(documentBytes))
	if validationError != nil {
		return validationError
	}
	if validationResult.Valid() {
		return nil
	}

	var violationDescriptions []string
	for _, schemaViolation := range validationResult.Errors() {
		violationDescriptions = append(violationDescriptions, schemaViolation.String())
	}
	return fmt.Errorf(schemaViolationTemplateConstant, strings.Join(violationDescriptions, schemaViolationJoinConstant))
}
