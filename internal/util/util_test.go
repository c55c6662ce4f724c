package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Schema Tests --------------------

type searchParams struct {
	Query    string `json:"query" description:"Search query"`
	Language *string
	Limit    int `json:"limit,omitempty"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(searchParams{})

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "Language")
	assert.Contains(t, props, "limit")

	query, ok := props["query"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", query["type"])
	assert.Equal(t, "Search query", query["description"])

	// Pointer and omitempty fields must not be required.
	req, _ := schema["required"].([]string)
	assert.Equal(t, []string{"query"}, req)
}

func TestValidateParametersAllCollectsEveryIssue(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
			"limit": map[string]any{"type": "integer"},
		},
		"required": []any{"query", "limit"},
	}

	issues := ValidateParametersAll(map[string]any{"limit": "ten"}, schema)
	require.Len(t, issues, 2)

	kinds := []string{issues[0].Kind, issues[1].Kind}
	assert.Contains(t, kinds, "required_parameter_missing")
	assert.Contains(t, kinds, "incorrect_type")
}

func TestValidateParametersFirstIssueOnly(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []string{"query"},
	}

	err := ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)

	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "query", vErr.Field)

	assert.NoError(t, ValidateParameters(map[string]any{"query": "x"}, schema))
}

func TestMatchesSchemaType(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
		want     bool
	}{
		{"nil matches anything", nil, "string", true},
		{"string ok", "x", "string", true},
		{"string mismatch", 1, "string", false},
		{"int as integer", 3, "integer", true},
		{"whole float64 as integer", float64(4), "integer", true},
		{"fractional float64 not integer", 4.5, "integer", false},
		{"float as number", 4.5, "number", true},
		{"bool ok", true, "boolean", true},
		{"generic slice as array", []any{1}, "array", true},
		{"typed slice as array", []string{"a"}, "array", true},
		{"map as object", map[string]any{}, "object", true},
		{"unknown type assumed valid", "x", "custom", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesSchemaType(tt.value, tt.expected))
		})
	}
}

// -------------------- Template Tests --------------------

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Hello {{.Name}}", map[string]any{"Name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)
}

func TestRenderTemplateNoMarkersFastPath(t *testing.T) {
	text := `{"intent": "direct_answer", "plan": {"steps": []}}`
	out, err := RenderTemplate(text, nil)
	require.NoError(t, err)
	assert.Equal(t, text, out)
}

// -------------------- JSON Extraction Tests --------------------

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"surrounding prose", `Here you go: {"a":1} hope it helps`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"no object", "nothing here", "nothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.input))
		})
	}
}
