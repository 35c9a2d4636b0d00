package util

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"masthead": "時空新報"}`,
			want:  `{"masthead": "時空新報"}`,
		},
		{
			name:  "fenced json block",
			input: "Here you go:\n```json\n{\"weather\": \"晴れ\"}\n```\nEnjoy!",
			want:  `{"weather": "晴れ"}`,
		},
		{
			name:  "fence without language tag",
			input: "```\n{\"edition\": \"朝刊\"}\n```",
			want:  `{"edition": "朝刊"}`,
		},
		{
			name:  "object surrounded by prose",
			input: `Sure! {"headline": "電撃発表"} Hope that helps.`,
			want:  `{"headline": "電撃発表"}`,
		},
		{
			name:  "nested braces inside strings",
			input: `{"body": "価格は{未定}とのこと", "note": "}"}`,
			want:  `{"body": "価格は{未定}とのこと", "note": "}"}`,
		},
		{
			name:  "array",
			input: `["a", "b"]`,
			want:  `["a", "b"]`,
		},
		{
			name:  "truncated array gets closed",
			input: `["first", "second", "thi`,
			want:  `["first", "second", "thi]`,
		},
		{
			name:  "no json at all",
			input: "plain prose",
			want:  "plain prose",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			if got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "literal newline in string value",
			input: "{\"body\": \"line one\nline two\"}",
		},
		{
			name:  "crlf in string value",
			input: "{\"body\": \"line one\r\nline two\"}",
		},
		{
			name:  "trailing comma in object",
			input: `{"a": 1, "b": 2,}`,
		},
		{
			name:  "trailing comma in array",
			input: `{"items": ["x", "y",]}`,
		},
		{
			name:  "already valid",
			input: `{"a": "b,c", "d": [1, 2]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sanitized := SanitizeJSON(tt.input)
			var v interface{}
			if err := json.Unmarshal([]byte(sanitized), &v); err != nil {
				t.Errorf("SanitizeJSON() produced invalid JSON: %v\ninput: %s\noutput: %s", err, tt.input, sanitized)
			}
		})
	}
}

func TestSanitizeJSONPreservesCommasInStrings(t *testing.T) {
	input := `{"body": "a, b, and c,"}`
	if got := SanitizeJSON(input); got != input {
		t.Errorf("SanitizeJSON() = %q, want unchanged %q", got, input)
	}
}
