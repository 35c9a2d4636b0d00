package util

import (
	"strings"
	"testing"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		data    map[string]interface{}
		want    string
		wantErr bool
	}{
		{
			name: "simple substitution",
			tmpl: "Newspaper for {{.Date}} in {{.Style}} style",
			data: map[string]interface{}{"Date": "1964-10-10", "Style": "showa"},
			want: "Newspaper for 1964-10-10 in showa style",
		},
		{
			name:    "missing key fails",
			tmpl:    "{{.Missing}}",
			data:    map[string]interface{}{},
			wantErr: true,
		},
		{
			name:    "forbidden directive rejected",
			tmpl:    "{{call .F}}",
			data:    map[string]interface{}{},
			wantErr: true,
		},
		{
			name:    "template inclusion rejected",
			tmpl:    `{{template "other"}}`,
			data:    map[string]interface{}{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderTemplate(tt.tmpl, tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("TruncateString() = %q, want unchanged", got)
	}
	got := TruncateString(strings.Repeat("x", 20), 5)
	if got != "xxxxx..." {
		t.Errorf("TruncateString() = %q", got)
	}
	// Multi-byte safety: never split a rune.
	got = TruncateString("昭和三十九年十月十日", 4)
	if got != "昭和三十..." {
		t.Errorf("TruncateString() = %q", got)
	}
}
