// Package tokens measures text in the completion service's native units and
// splits token streams into budget-sized chunks.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is the BPE encoding shared by chat-completion models.
const DefaultEncoding = "cl100k_base"

// Counter converts between text and token ids. Implementations must be
// deterministic so that chunk sizes and budget checks agree.
type Counter interface {
	Count(text string) int
	Encode(text string) []int
	Decode(tokens []int) string
}

// TikToken is a Counter backed by tiktoken-go. The BPE ranks are compiled into
// the binary, so construction never touches the network.
type TikToken struct {
	enc *tiktoken.Tiktoken
}

// NewTikToken loads the named encoding (e.g. "cl100k_base").
func NewTikToken(encoding string) (*TikToken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tokens: load encoding %s: %w", encoding, err)
	}
	return &TikToken{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (t *TikToken) Count(text string) int {
	return len(t.Encode(text))
}

// Encode tokenizes text. Special-token markers are encoded as ordinary text.
func (t *TikToken) Encode(text string) []int {
	if text == "" {
		return nil
	}
	return t.enc.EncodeOrdinary(text)
}

// Decode turns token ids back into text.
func (t *TikToken) Decode(tokens []int) string {
	if len(tokens) == 0 {
		return ""
	}
	return t.enc.Decode(tokens)
}

// Split partitions tokens greedily from the left into chunks of at most max
// tokens. Empty input yields no chunks. A non-positive max yields a single
// chunk holding the whole input.
func Split(tokens []int, max int) [][]int {
	if len(tokens) == 0 {
		return nil
	}
	if max <= 0 {
		return [][]int{tokens}
	}

	chunks := make([][]int, 0, (len(tokens)+max-1)/max)
	for start := 0; start < len(tokens); start += max {
		end := start + max
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, tokens[start:end:end])
	}
	return chunks
}
