package prompt

import (
	"sync"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

var loadCodec = sync.OnceValues(func() (tokenizer.Codec, error) {
	return tokenizer.Get(tokenizer.Cl100kBase)
})

// EstimateTokens counts the cl100k_base tokens in text, an adequate
// approximation across current models.
func EstimateTokens(text string) (int, error) {
	codec, err := loadCodec()
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// EstimateTokensSimple never fails: when the tokenizer is unavailable it
// falls back to the rough one-token-per-four-characters heuristic.
func EstimateTokensSimple(text string) int {
	n, err := EstimateTokens(text)
	if err != nil {
		return utf8.RuneCountInString(text) / 4
	}
	return n
}
