package sanitize

import "testing"

func TestPlainText(t *testing.T) {
	t.Parallel()

	p := NewPlainTextPolicy()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "emphasis", in: "**Bold** and _italic_", want: "Bold and italic"},
		{name: "heading and ordered list", in: "# Steps\n\n1. Open Settings\n2. Click **VPN**", want: "Steps\n\n1. Open Settings\n2. Click VPN"},
		{name: "list start", in: "3. third\n4. fourth", want: "3. third\n4. fourth"},
		{name: "bullets", in: "- one\n- two", want: "• one\n• two"},
		{name: "link", in: "See [the portal](https://it.example.com)", want: "See the portal (https://it.example.com)"},
		{name: "inline html", in: "Press <b>Restart</b> now", want: "Press Restart now"},
		{name: "code span", in: "Run `ipconfig /all` first", want: "Run ipconfig /all first"},
		{name: "soft break", in: "line one\nline two", want: "line one\nline two"},
		{name: "entities", in: "Tom &amp; Jerry", want: "Tom & Jerry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := p.PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNilPolicy(t *testing.T) {
	t.Parallel()

	var p *Policy
	if got := p.PlainText("**kept**"); got != "**kept**" {
		t.Errorf("PlainText() = %q", got)
	}
}
