package htmlsanitize

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "plain text",
			input:    "Hello World",
			contains: []string{"Hello World"},
		},
		{
			name:     "script removed",
			input:    "<p>Hello</p><script>alert('xss')</script>",
			contains: []string{"<p>Hello</p>"},
			excludes: []string{"<script>", "alert"},
		},
		{
			name:     "event handler removed",
			input:    `<p onclick="alert(1)">Click</p>`,
			contains: []string{"<p>", "Click"},
			excludes: []string{"onclick"},
		},
		{
			name:     "javascript url removed",
			input:    `<a href="javascript:alert(1)">Link</a>`,
			contains: []string{"Link"},
			excludes: []string{"javascript:"},
		},
		{
			name:     "block classes kept",
			input:    `<aside class="callout" role="note"><span class="callout-icon">💡</span></aside>`,
			contains: []string{`class="callout"`, `role="note"`, "💡"},
		},
		{
			name:     "toggle kept",
			input:    `<details class="toggle"><summary>More</summary><p>Body</p></details>`,
			contains: []string{"<details", "<summary>More</summary>"},
		},
		{
			name:     "code language kept",
			input:    `<pre data-language="go"><code class="language-go">x := 1</code></pre>`,
			contains: []string{`data-language="go"`, `class="language-go"`},
		},
		{
			name:     "external link target kept",
			input:    `<a href="https://other.test/" target="_blank" rel="noopener noreferrer">x</a>`,
			contains: []string{`target="_blank"`, "noopener"},
		},
		{
			name:     "figure kept",
			input:    `<figure><img src="/api/image-proxy?url=x" alt="a"><figcaption>cap</figcaption></figure>`,
			contains: []string{"<figure>", "<img", "<figcaption>cap</figcaption>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, want to contain %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

func TestSanitize_Empty(t *testing.T) {
	if got := Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q", got)
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  hello  ", "hello"},
		{"<b>bold</b> move", "bold move"},
		{"<script>alert(1)</script>hi", "hi"},
		{"a < b & c", "a < b & c"},
	}
	for _, tt := range tests {
		if got := StripTags(tt.in); got != tt.want {
			t.Errorf("StripTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
