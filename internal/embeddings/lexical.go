package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultLexicalDimensions is the vector length of NewLexicalEmbedder(0).
const DefaultLexicalDimensions = 512

// LexicalEmbedder hashes content words into a fixed-size bag-of-words vector.
// It needs no network and only finds chunks that share a word with the
// query, so it serves deployments without an embedding model.
type LexicalEmbedder struct {
	dims int
}

// NewLexicalEmbedder creates a hashing embedder. dims below 2 selects
// DefaultLexicalDimensions.
func NewLexicalEmbedder(dims int) *LexicalEmbedder {
	if dims < 2 {
		dims = DefaultLexicalDimensions
	}
	return &LexicalEmbedder{dims: dims}
}

func (e *LexicalEmbedder) Name() string {
	return "lexical"
}

func (e *LexicalEmbedder) Dimensions() int {
	return e.dims
}

func (e *LexicalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.vector(text)
	}
	return vectors, nil
}

// vector reserves slot 0 for texts without content words, so such texts are
// orthogonal to everything that has one.
func (e *LexicalEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dims)
	terms := Terms(text)
	if len(terms) == 0 {
		vec[0] = 1
		return vec
	}

	for _, term := range terms {
		h := fnv.New32a()
		h.Write([]byte(term))
		vec[1+int(h.Sum32()%uint32(e.dims-1))]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "how": {}, "i": {},
	"in": {}, "is": {}, "it": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "this": {}, "to": {}, "was": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "who": {}, "why": {}, "with": {}, "you": {}, "your": {},
}

// Terms returns the distinct lowercase content words of text in order of
// first appearance.
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, stop := stopWords[field]; stop {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		terms = append(terms, field)
	}
	return terms
}
