// Package ranking orders scored resumes into the final shortlist.
package ranking

import (
	"sort"

	"github.com/spigell/resume-screener/internal/candidate"
)

// FinalScore is the model's total when present, otherwise the prefilter similarity.
func FinalScore(s candidate.Scored) float64 {
	if s.TotalScore != nil {
		return float64(*s.TotalScore)
	}
	return s.PrefilterScore
}

// Rank sorts records by descending final score and assigns 1-based ranks.
// Ties keep their input order and still get consecutive ranks.
func Rank(records []candidate.Scored) []candidate.Ranked {
	ranked := make([]candidate.Ranked, 0, len(records))
	for _, s := range records {
		ranked = append(ranked, candidate.Ranked{Scored: s, FinalScore: FinalScore(s)})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].FinalScore > ranked[b].FinalScore
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Summary describes the final scores of a ranked list.
type Summary struct {
	Count   int
	Average float64
	Top     float64
	Bottom  float64
}

// Summarize computes score statistics over ranked. An empty list yields a
// zero Summary.
func Summarize(ranked []candidate.Ranked) Summary {
	if len(ranked) == 0 {
		return Summary{}
	}

	s := Summary{Count: len(ranked), Top: ranked[0].FinalScore, Bottom: ranked[0].FinalScore}
	var sum float64
	for _, r := range ranked {
		sum += r.FinalScore
		s.Top = max(s.Top, r.FinalScore)
		s.Bottom = min(s.Bottom, r.FinalScore)
	}
	s.Average = sum / float64(len(ranked))
	return s
}
