package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestTextFormatter(t *testing.T) {
	formatter := &TextFormatter{}

	output, err := formatter.Format("test message")
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	expected := "test message\n"
	if string(output) != expected {
		t.Errorf("Format() = %q, want %q", string(output), expected)
	}
}

func TestTextFormatterWriter(t *testing.T) {
	formatter := &TextFormatter{}
	buf := &bytes.Buffer{}

	if err := formatter.FormatTo(buf, "test message"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	expected := "test message\n"
	if buf.String() != expected {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), expected)
	}
}

func TestJSONFormatter(t *testing.T) {
	tests := []struct {
		name   string
		data   interface{}
		indent bool
	}{
		{
			name:   "simple string",
			data:   "intact",
			indent: false,
		},
		{
			name:   "map with indent",
			data:   map[string]int{"admissibilityScore": 90},
			indent: true,
		},
		{
			name:   "slice",
			data:   []string{"REGISTERED", "VERIFIED"},
			indent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &JSONFormatter{Indent: tt.indent}

			output, err := formatter.Format(tt.data)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			// Round-trip to make sure the output is valid JSON.
			var decoded interface{}
			if err := json.Unmarshal(output, &decoded); err != nil {
				t.Errorf("Format() produced invalid JSON: %v", err)
			}

			if tt.indent && !strings.Contains(string(output), "\n") {
				if _, ok := tt.data.(string); !ok {
					t.Errorf("Format() with Indent should produce indented output, got %q", string(output))
				}
			}
		})
	}
}

func TestJSONFormatterWriter(t *testing.T) {
	formatter := &JSONFormatter{Indent: true}
	buf := &bytes.Buffer{}

	data := map[string]string{"status": "INTACT"}
	if err := formatter.FormatTo(buf, data); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("FormatTo() produced invalid JSON: %v", err)
	}
	if decoded["status"] != "INTACT" {
		t.Errorf("status = %q, want %q", decoded["status"], "INTACT")
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{OutputFormat("unknown"), "*cli.TextFormatter"},
	}

	for _, tt := range tests {
		formatter := NewFormatter(tt.format)
		switch tt.want {
		case "*cli.TextFormatter":
			if _, ok := formatter.(*TextFormatter); !ok {
				t.Errorf("NewFormatter(%q) = %T, want TextFormatter", tt.format, formatter)
			}
		case "*cli.JSONFormatter":
			if _, ok := formatter.(*JSONFormatter); !ok {
				t.Errorf("NewFormatter(%q) = %T, want JSONFormatter", tt.format, formatter)
			}
		}
	}
}
