package cce

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// defaultTokenCounter approximates token count as ceil(content_length / 3.5).
// This is the zero-dependency fallback used when no TokenCounter is
// configured; NewTiktokenCounter below gives an exact count when the
// caller wants one.
func defaultTokenCounter(m Message) int {
	n := len(m.Content)
	// ceil(n / 3.5) == ceil(2n / 7) == (2n + 6) / 7 in integer arithmetic.
	return (2*n + 6) / 7
}

// DefaultTokenCounter is the package's built-in TokenCounter, used by
// CompressOptions whenever opts.TokenCounter is nil.
var DefaultTokenCounter TokenCounter = TokenCounterFunc(defaultTokenCounter)

// tiktokenCounter wraps a tiktoken-go encoding to give exact BPE token
// counts for a chosen model's tokenizer.
type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

var tiktokenCache sync.Map // model name -> *tiktoken.Tiktoken

// NewTiktokenCounter returns a TokenCounter backed by tiktoken-go's
// encoding for modelName (e.g. "gpt-4", "gpt-3.5-turbo"). Encodings are
// cached process-wide since construction loads a BPE rank table.
func NewTiktokenCounter(modelName string) (TokenCounter, error) {
	if cached, ok := tiktokenCache.Load(modelName); ok {
		return &tiktokenCounter{enc: cached.(*tiktoken.Tiktoken)}, nil
	}
	enc, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, newTypeErrorf("tiktoken: unknown model %q: %v", modelName, err)
	}
	tiktokenCache.Store(modelName, enc)
	return &tiktokenCounter{enc: enc}, nil
}

func (t *tiktokenCounter) CountTokens(m Message) int {
	return len(t.enc.Encode(m.Content, nil, nil))
}
