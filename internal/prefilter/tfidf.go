package prefilter

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// vector is a sparse L2-normalized term weight vector. Sums run over terms
// in sorted order so equal documents get bit-identical scores.
type vector struct {
	terms   []string
	weights map[string]float64
}

// tokenize lowercases text and returns word tokens of at least two runes,
// skipping stop words.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		if _, stop := englishStopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// vectorize builds TF-IDF vectors for docs with raw term counts and the
// smoothed idf ln((1+n)/(1+df))+1. Each vector is L2-normalized.
func vectorize(docs []string) []vector {
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		tf := make(map[string]int)
		for _, tok := range tokenize(doc) {
			tf[tok]++
		}
		for term := range tf {
			df[term]++
		}
		counts[i] = tf
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, d := range df {
		idf[term] = math.Log((1+n)/(1+float64(d))) + 1
	}

	vectors := make([]vector, len(docs))
	for i, tf := range counts {
		v := vector{
			terms:   make([]string, 0, len(tf)),
			weights: make(map[string]float64, len(tf)),
		}
		for term := range tf {
			v.terms = append(v.terms, term)
		}
		sort.Strings(v.terms)

		var norm float64
		for _, term := range v.terms {
			w := float64(tf[term]) * idf[term]
			v.weights[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for _, term := range v.terms {
				v.weights[term] /= norm
			}
		}
		vectors[i] = v
	}
	return vectors
}

// cosine of two normalized vectors. Empty vectors score 0.
func cosine(a, b vector) float64 {
	if len(a.terms) > len(b.terms) {
		a, b = b, a
	}
	var dot float64
	for _, term := range a.terms {
		dot += a.weights[term] * b.weights[term]
	}
	return dot
}
