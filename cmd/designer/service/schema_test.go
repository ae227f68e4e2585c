package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/flowforge/cmd/designer/apperr"
	"github.com/flowforge/flowforge/cmd/designer/models"
)

func TestFieldSchemaToJSONSchema(t *testing.T) {
	schema := fieldSchemaToJSONSchema([]models.FieldDef{
		{Name: "summary", Label: "Summary", Type: models.FieldText, Required: true},
		{Name: "budget", Label: "Budget", Type: models.FieldNumber},
		{Name: "tags", Label: "Tags", Type: models.FieldMultiSelect, Options: []string{"hr", "it"}},
		{Name: "due", Label: "Due date", Type: models.FieldDate},
	})

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []string{"summary"}, schema["required"])

	props := schema["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string"}, props["summary"])
	assert.Equal(t, map[string]any{"type": "number"}, props["budget"])
	assert.Equal(t, map[string]any{"type": "string", "format": "date"}, props["due"])

	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
}

func TestValidateTaskDataEmptyAgainstOptionalSchema(t *testing.T) {
	taskType := &models.TaskType{
		Name: "Notify",
		FieldSchema: []models.FieldDef{
			{Name: "channel", Label: "Channel", Type: models.FieldText},
		},
	}

	// No data at all is fine when nothing is required
	require.NoError(t, validateTaskData(taskType, nil))
	require.NoError(t, validateTaskData(taskType, json.RawMessage(`{}`)))
}

func TestValidateTaskDataRejectsMalformedJSON(t *testing.T) {
	taskType := &models.TaskType{Name: "Notify"}

	err := validateTaskData(taskType, json.RawMessage(`{"channel":`))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestValidateTaskDataMultiSelect(t *testing.T) {
	taskType := &models.TaskType{
		Name: "Tagging",
		FieldSchema: []models.FieldDef{
			{Name: "tags", Label: "Tags", Type: models.FieldMultiSelect, Options: []string{"hr", "it"}},
		},
	}

	require.NoError(t, validateTaskData(taskType, json.RawMessage(`{"tags":["hr","it"]}`)))

	err := validateTaskData(taskType, json.RawMessage(`{"tags":["finance"]}`))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))

	err = validateTaskData(taskType, json.RawMessage(`{"tags":"hr"}`))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestValidateFieldDefs(t *testing.T) {
	cases := []struct {
		name    string
		fields  []models.FieldDef
		wantErr string
	}{
		{
			name: "valid",
			fields: []models.FieldDef{
				{Name: "approver", Label: "Approver", Type: models.FieldText},
				{Name: "priority", Label: "Priority", Type: models.FieldSelect, Options: []string{"low", "high"}},
			},
		},
		{
			name:    "missing label",
			fields:  []models.FieldDef{{Name: "approver", Type: models.FieldText}},
			wantErr: "field name and label are required",
		},
		{
			name: "duplicate name",
			fields: []models.FieldDef{
				{Name: "approver", Label: "A", Type: models.FieldText},
				{Name: "approver", Label: "B", Type: models.FieldText},
			},
			wantErr: `duplicate field name "approver"`,
		},
		{
			name:    "unknown type",
			fields:  []models.FieldDef{{Name: "approver", Label: "A", Type: "textarea"}},
			wantErr: `unknown field type "textarea"`,
		},
		{
			name:    "select without options",
			fields:  []models.FieldDef{{Name: "priority", Label: "P", Type: models.FieldSelect}},
			wantErr: `field "priority" requires options`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateFieldDefs(tc.fields)
			if tc.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tc.wantErr)
				assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
			}
		})
	}
}
