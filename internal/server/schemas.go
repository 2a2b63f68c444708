package server

import (
	"fmt"
	"strings"

	"ethics-review-service/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Per-action payload schemas. Validation runs before the engine so malformed
// requests never consume a transition attempt; semantic gates (whitespace
// reasons, committee resolution) remain the engine's preconditions.
var actionSchemas = map[models.Action]string{
	models.ActionSubmit:           `{"type": "object", "additionalProperties": false}`,
	models.ActionMarkChecked:      `{"type": "object", "additionalProperties": false}`,
	models.ActionForward:          `{"type": "object", "additionalProperties": false}`,
	models.ActionResubmit:         `{"type": "object", "additionalProperties": false}`,
	models.ActionExpeditedApprove: `{"type": "object", "additionalProperties": false}`,
	models.ActionReturnToApplicant: `{
		"type": "object",
		"properties": {
			"reason": {"type": "string", "minLength": 1}
		},
		"required": ["reason"],
		"additionalProperties": false
	}`,
	models.ActionAssignCommittee: `{
		"type": "object",
		"properties": {
			"committeeId": {"type": "string", "minLength": 1},
			"dueDate": {"type": "string", "format": "date-time"}
		},
		"required": ["committeeId", "dueDate"],
		"additionalProperties": false
	}`,
	models.ActionCommitteeDecision: `{
		"type": "object",
		"properties": {
			"decision": {"type": "string", "enum": ["approve", "reject"]}
		},
		"required": ["decision"],
		"additionalProperties": false
	}`,
}

var compiledSchemas = mustCompileSchemas()

func mustCompileSchemas() map[models.Action]*gojsonschema.Schema {
	compiled := make(map[models.Action]*gojsonschema.Schema, len(actionSchemas))
	for action, raw := range actionSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("invalid payload schema for %s: %v", action, err))
		}
		compiled[action] = schema
	}
	return compiled
}

// validatePayload checks the raw JSON body against the action's schema and
// returns a human-readable summary of the violations.
func validatePayload(action models.Action, body []byte) error {
	schema, ok := compiledSchemas[action]
	if !ok {
		return fmt.Errorf("no schema registered for action %s", action)
	}

	if len(body) == 0 {
		body = []byte("{}")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(issues, "; "))
}
