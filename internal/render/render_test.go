package render

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, FormatTable)

	err := r.RenderTable(
		[]string{"ID", "NAME"},
		[][]string{
			{"TXN-00001", "123-main-st"},
			{"TXN-00002", "9-elm"},
		},
	)
	if err != nil {
		t.Fatalf("RenderTable: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines (header, separator, 2 rows), got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "---") {
		t.Errorf("expected separator line, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "TXN-00001  ") {
		t.Errorf("expected padded first column, got %q", lines[2])
	}
}

func TestRenderTableEmptyRowsPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, FormatTable)

	if err := r.RenderTable([]string{"ID"}, nil); err != nil {
		t.Fatalf("RenderTable: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output for empty rows, got %q", buf.String())
	}
}

func TestRenderStructuredFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, FormatTable)

	if err := r.RenderStructured(map[string]int{"stage": 2}); err != nil {
		t.Fatalf("RenderStructured: %v", err)
	}
	if !strings.Contains(buf.String(), `"stage": 2`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}

	buf.Reset()
	r = NewRenderer(&buf, FormatYAML)
	if err := r.RenderStructured(map[string]int{"stage": 2}); err != nil {
		t.Fatalf("RenderStructured: %v", err)
	}
	if !strings.Contains(buf.String(), "stage: 2") {
		t.Errorf("expected YAML output, got %q", buf.String())
	}
}

func TestRenderList(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, FormatTable)

	if err := r.RenderList([]string{"a", "b"}); err != nil {
		t.Fatalf("RenderList: %v", err)
	}
	if buf.String() != "a\nb\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}
