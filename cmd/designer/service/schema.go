package service

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
)

// fieldSchemaToJSONSchema compiles a task type's field definitions into
// a JSON Schema document for validating task data
func fieldSchemaToJSONSchema(fields []models.FieldDef) map[string]any {
	properties := make(map[string]any, len(fields))
	var required []string

	for _, f := range fields {
		var prop map[string]any

		switch f.Type {
		case models.FieldText:
			prop = map[string]any{"type": "string"}
		case models.FieldNumber:
			prop = map[string]any{"type": "number"}
		case models.FieldBoolean:
			prop = map[string]any{"type": "boolean"}
		case models.FieldSelect:
			prop = map[string]any{"type": "string", "enum": f.Options}
		case models.FieldMultiSelect:
			prop = map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "enum": f.Options},
			}
		case models.FieldDate:
			prop = map[string]any{"type": "string", "format": "date"}
		default:
			prop = map[string]any{}
		}

		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// validateTaskData checks task data against the owning task type's
// compiled field schema
func validateTaskData(taskType *models.TaskType, data json.RawMessage) error {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}

	schemaLoader := gojsonschema.NewGoLoader(fieldSchemaToJSONSchema(taskType.FieldSchema))
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return apperr.Invalid("task data is not valid JSON: %v", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return apperr.Invalid("task data does not match task type %q: %s", taskType.Name, strings.Join(msgs, "; "))
	}

	return nil
}

// validateFieldDefs sanity-checks a task type's field definitions
func validateFieldDefs(fields []models.FieldDef) error {
	seen := make(map[string]bool, len(fields))

	for _, f := range fields {
		if f.Name == "" || f.Label == "" {
			return apperr.Invalid("field name and label are required")
		}
		if seen[f.Name] {
			return apperr.Invalid("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true

		if !models.ValidFieldType(f.Type) {
			return apperr.Invalid("unknown field type %q", f.Type)
		}

		if (f.Type == models.FieldSelect || f.Type == models.FieldMultiSelect) && len(f.Options) == 0 {
			return apperr.Invalid("field %q requires options", f.Name)
		}
	}

	return nil
}
