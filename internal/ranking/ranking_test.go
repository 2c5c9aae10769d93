package ranking

import (
	"reflect"
	"testing"

	"github.com/spigell/resume-screener/internal/candidate"
)

func scored(name string, total *int, prefilter float64) candidate.Scored {
	return candidate.Scored{Filename: name, TotalScore: total, PrefilterScore: prefilter}
}

func TestRankByTotalScore(t *testing.T) {
	ranked := Rank([]candidate.Scored{
		scored("a", candidate.IntPtr(80), 0),
		scored("b", candidate.IntPtr(95), 0),
		scored("c", candidate.IntPtr(60), 0),
	})

	var finals []float64
	var ranks []int
	for _, r := range ranked {
		finals = append(finals, r.FinalScore)
		ranks = append(ranks, r.Rank)
	}

	if !reflect.DeepEqual(finals, []float64{95, 80, 60}) {
		t.Fatalf("unexpected order: %v", finals)
	}
	if !reflect.DeepEqual(ranks, []int{1, 2, 3}) {
		t.Fatalf("unexpected ranks: %v", ranks)
	}
}

func TestRankFallsBackToPrefilter(t *testing.T) {
	ranked := Rank([]candidate.Scored{scored("missing", nil, 0.7)})
	if ranked[0].FinalScore != 0.7 {
		t.Fatalf("expected final score 0.7, got %f", ranked[0].FinalScore)
	}
	if FinalScore(scored("none", nil, 0)) != 0 {
		t.Fatalf("expected default 0")
	}
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	ranked := Rank([]candidate.Scored{
		scored("first", candidate.IntPtr(50), 0.1),
		scored("top", candidate.IntPtr(70), 0.1),
		scored("second", candidate.IntPtr(50), 0.9),
		scored("third", candidate.IntPtr(50), 0.5),
	})

	var names []string
	for _, r := range ranked {
		names = append(names, r.Filename)
	}
	if !reflect.DeepEqual(names, []string{"top", "first", "second", "third"}) {
		t.Fatalf("unexpected tie order: %v", names)
	}
	if ranked[3].Rank != 4 {
		t.Fatalf("expected consecutive ranks, got %d", ranked[3].Rank)
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	ranked := Rank([]candidate.Scored{
		scored("a", candidate.IntPtr(40), 0),
		scored("b", candidate.IntPtr(90), 0),
		scored("c", nil, 0.5),
		scored("d", candidate.IntPtr(70), 0),
	})

	got := Summarize(ranked)
	want := Summary{Count: 4, Average: 50.125, Top: 90, Bottom: 0.5}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if got := Summarize(nil); got != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", got)
	}
}
