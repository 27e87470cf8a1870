package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
	D bool   `json:"-"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	assert.NotContains(t, props, "D")
	assert.Equal(t, []string{"a"}, schema["required"])
	assert.Equal(t, "Field A", props["a"].(map[string]any)["description"])
	assert.Equal(t, "integer", props["c"].(map[string]any)["type"])
}

func TestValidateParameters_RequiredShapes(t *testing.T) {
	for _, required := range []any{[]string{"x"}, []any{"x"}} {
		schema := map[string]any{
			"type":       "object",
			"properties": map[string]any{"x": map[string]any{"type": "integer"}},
			"required":   required,
		}

		assert.NoError(t, ValidateParameters(map[string]any{"x": 5.0}, schema))

		err := ValidateParameters(map[string]any{}, schema)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "x", vErr.Field)

		err = ValidateParameters(map[string]any{"x": 1.5}, schema)
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Message, "expected type integer")
	}
}

func TestValidateParameters_Enum(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{
			"op": map[string]any{"type": "string", "enum": []string{"get", "search"}},
		},
	}
	assert.NoError(t, ValidateParameters(map[string]any{"op": "get"}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"op": "drop"}, schema))
	// extra fields are allowed
	assert.NoError(t, ValidateParameters(map[string]any{"other": 1}, schema))
}

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)

	out, err = RenderTemplate(`{{range .Facts}}- {{.}}
{{end}}{{default "none" .Missing}} {{percent .Score}}`, map[string]any{
		"Facts": []string{"a", "b"},
		"Score": 0.75,
	})
	require.NoError(t, err)
	assert.Equal(t, "- a\n- b\nnone 75%", out)

	_, err = RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}
