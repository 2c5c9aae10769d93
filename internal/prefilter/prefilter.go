// Package prefilter shortlists resumes by lexical similarity to the job description.
package prefilter

import (
	"math"
	"sort"

	"github.com/spigell/resume-screener/internal/candidate"
)

// Scores returns the TF-IDF cosine similarity between jd and every record's
// text. The vector space is built over jd and all records together.
func Scores(records []candidate.Record, jd string) []float64 {
	docs := make([]string, 0, len(records)+1)
	docs = append(docs, jd)
	for _, r := range records {
		docs = append(docs, r.Text)
	}

	vectors := vectorize(docs)
	scores := make([]float64, len(records))
	for i := range records {
		scores[i] = cosine(vectors[0], vectors[i+1])
	}
	return scores
}

// Shortlist returns copies of the records with PrefilterScore set, sorted by
// descending score (ties keep input order) and truncated to k.
func Shortlist(records []candidate.Record, jd string, k int) []candidate.Record {
	scores := Scores(records, jd)

	decorated := make([]candidate.Record, len(records))
	for i, r := range records {
		r.PrefilterScore = scores[i]
		decorated[i] = r
	}

	sort.SliceStable(decorated, func(a, b int) bool {
		return decorated[a].PrefilterScore > decorated[b].PrefilterScore
	})

	if k < 0 {
		k = 0
	}
	if k < len(decorated) {
		decorated = decorated[:k]
	}
	return decorated
}

// KFromPercent converts a shortlist percentage into a size of at least one.
func KFromPercent(total int, percent float64) int {
	k := int(math.Floor(float64(total) * percent / 100))
	if k < 1 {
		return 1
	}
	return k
}
