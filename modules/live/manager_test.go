package live

import "testing"

func TestStripBaselinePrefix(t *testing.T) {
	cases := []struct {
		name     string
		baseline string
		text     string
		want     string
	}{
		{"exact prefix", "hello world", "hello world this is new", "this is new"},
		{"no shared tokens", "hello world", "completely different text", "completely different text"},
		{"empty baseline", "", "some text", "some text"},
		{"baseline equals text", "hello world", "hello world", ""},
		// "world" vs "world," don't match token-for-token once whisper
		// reattaches punctuation at the boundary; the heuristic only
		// strips the tokens that matched exactly (just "hello" here).
		{"retokenized boundary", "hello world", "hello world, this is new", "world, this is new"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := stripBaselinePrefix(tc.baseline, tc.text)
			if got != tc.want {
				t.Errorf("stripBaselinePrefix(%q, %q) = %q, want %q", tc.baseline, tc.text, got, tc.want)
			}
		})
	}
}

func TestExtensionForContentType(t *testing.T) {
	cases := map[string]string{
		"audio/webm;codecs=opus": "webm",
		"audio/ogg":              "ogg",
		"audio/wav":              "wav",
		"application/octet-stream": "bin",
	}
	for ct, want := range cases {
		if got := extensionForContentType(ct); got != want {
			t.Errorf("extensionForContentType(%q) = %q, want %q", ct, got, want)
		}
	}
}
