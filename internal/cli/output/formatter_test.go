package output

import (
	"bytes"
	"strings"
	"testing"
)

type nodeStat struct {
	Path     string `json:"path" yaml:"path"`
	Version  int32  `json:"version" yaml:"version"`
	Children int32  `json:"num_children" yaml:"num_children"`
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	if _, ok := NewFormatter("unknown").(*TableFormatter); !ok {
		t.Error("expected TableFormatter as default")
	}
}

func TestPrint(t *testing.T) {
	data := nodeStat{Path: "/a", Version: 3, Children: 2}

	tests := []struct {
		format string
		want   []string
	}{
		{"json", []string{`"path": "/a"`, `"num_children": 2`}},
		{"yaml", []string{"path: /a", "version: 3", "num_children: 2"}},
		{"table", []string{"FIELD", "path", "/a", "num_children"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Print(&buf, tt.format, data); err != nil {
				t.Fatalf("Print() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}

	if err := Print(&bytes.Buffer{}, "xml", data); err == nil {
		t.Error("Print() with unknown format should fail")
	}
}

func TestJSONFormatter_Nil(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "null" {
		t.Errorf("Format(nil) = %q, want null", buf.String())
	}
}

func TestYAMLFormatter_Nested(t *testing.T) {
	data := map[string]any{
		"servers": []string{"zk1:2181", "zk2:2181"},
		"pool":    map[string]int{"size": 4},
	}
	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"servers:\n  - zk1:2181\n", "pool:\n  size: 4\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
