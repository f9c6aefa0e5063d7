package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			"bare object",
			`{"title": "청년창업 지원사업"}`,
			`{"title": "청년창업 지원사업"}`,
		},
		{
			"object wrapped in prose",
			"분석 결과는 다음과 같습니다:\n```json\n{\"title\": \"A\"}\n```\n감사합니다.",
			`{"title": "A"}`,
		},
		{
			"nested objects",
			`note {"a": {"b": {"c": 1}}, "d": 2} trailing`,
			`{"a": {"b": {"c": 1}}, "d": 2}`,
		},
		{
			"braces inside string literals",
			`{"description": "중괄호 } 포함 { 텍스트", "x": 1}`,
			`{"description": "중괄호 } 포함 { 텍스트", "x": 1}`,
		},
		{
			"escaped quotes inside strings",
			`{"title": "이름은 \"가나다\" 입니다"}`,
			`{"title": "이름은 \"가나다\" 입니다"}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractJSONObjectFailures(t *testing.T) {
	for _, input := range []string{
		"",
		"죄송합니다, 분석할 수 없습니다.",
		`{"title": "unterminated`,
		`{"a": {"b": 1}`,
	} {
		_, err := ExtractJSONObject(input)
		assert.ErrorIs(t, err, ErrParseFailure, "input %q", input)
	}
}
