package tokens

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i * 7
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		max        int
		wantChunks int
	}{
		{name: "empty input", n: 0, max: 3, wantChunks: 0},
		{name: "shorter than budget", n: 2, max: 3, wantChunks: 1},
		{name: "exact multiple", n: 9, max: 3, wantChunks: 3},
		{name: "remainder", n: 10, max: 3, wantChunks: 4},
		{name: "budget of one", n: 5, max: 1, wantChunks: 5},
		{name: "non-positive budget", n: 5, max: 0, wantChunks: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := seq(tt.n)
			chunks := Split(input, tt.max)

			assert.Equal(t, tt.wantChunks, len(chunks))

			var joined []int
			for _, c := range chunks {
				if tt.max > 0 && len(c) > tt.max {
					t.Errorf("chunk of %d tokens exceeds budget %d", len(c), tt.max)
				}
				if len(c) == 0 {
					t.Errorf("empty chunk produced")
				}
				joined = append(joined, c...)
			}
			if tt.n == 0 {
				assert.Equal(t, 0, len(joined))
				return
			}
			assert.Equal(t, input, joined)
		})
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	input := seq(23)
	first := Split(input, 5)
	second := Split(input, 5)
	assert.Equal(t, first, second)
}

func TestSplitChunksDoNotAlias(t *testing.T) {
	input := seq(6)
	chunks := Split(input, 3)

	// Appending to one chunk must not overwrite the next one.
	_ = append(chunks[0], -1)
	assert.Equal(t, []int{21, 28, 35}, chunks[1])
}

func TestTikTokenRoundTrip(t *testing.T) {
	tok, err := NewTikToken(DefaultEncoding)
	if err != nil {
		t.Fatalf("load encoding: %v", err)
	}

	text := "Show HN: a tiny tool that summarizes long threads, written in Go."
	ids := tok.Encode(text)

	assert.NotEqual(t, 0, len(ids))
	assert.Equal(t, len(ids), tok.Count(text))
	assert.Equal(t, text, tok.Decode(ids))
	assert.Equal(t, ids, tok.Encode(text))
}

func TestTikTokenChunksReassemble(t *testing.T) {
	tok, err := NewTikToken("")
	if err != nil {
		t.Fatalf("load encoding: %v", err)
	}

	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40)
	ids := tok.Encode(text)

	var sb strings.Builder
	for _, chunk := range Split(ids, 25) {
		sb.WriteString(tok.Decode(chunk))
	}
	assert.Equal(t, text, sb.String())
}

func TestTikTokenEmpty(t *testing.T) {
	tok, err := NewTikToken("")
	if err != nil {
		t.Fatalf("load encoding: %v", err)
	}
	assert.Equal(t, 0, tok.Count(""))
	assert.Equal(t, "", tok.Decode(nil))
}
