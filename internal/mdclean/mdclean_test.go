package mdclean

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "html entities",
			in:   "Tom&nbsp;&amp;&nbsp;Jerry &lt;3 &quot;cats&quot;",
			want: `Tom & Jerry <3 "cats"`,
		},
		{
			name: "br and p tags",
			in:   "line one<br/>line two<p>para</p>",
			want: "line one\nline two\n\npara",
		},
		{
			name: "div and stray tags",
			in:   `<div class="page">text</div><span>more</span>`,
			want: "textmore",
		},
		{
			name: "markdown fence unwrapped",
			in:   "```markdown\n# Heading\n\nbody\n```",
			want: "# Heading\n\nbody",
		},
		{
			name: "bare fence unwrapped",
			in:   "```\ncontent\n```",
			want: "content",
		},
		{
			name: "inner fences preserved",
			in:   "before\n```\ncode\n```\nafter",
			want: "before\n```\ncode\n```\nafter",
		},
		{
			name: "excess blank lines collapsed",
			in:   "a\n\n\n\n\n\nb",
			want: "a\n\n\nb",
		},
		{
			name: "trailing whitespace stripped",
			in:   "a  \t\nb\t \nc",
			want: "a\nb\nc",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  \n text \n  ",
			want: "text",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClean_Deterministic(t *testing.T) {
	in := "```markdown\n# Title  \n\n\n\n\n&amp; more<br>\n```"
	first := Clean(in)
	if second := Clean(in); second != first {
		t.Fatalf("Clean is not deterministic: %q vs %q", first, second)
	}
	// Already-clean text is a fixed point.
	if again := Clean(first); again != first {
		t.Fatalf("Clean is not idempotent: %q vs %q", first, again)
	}
}
