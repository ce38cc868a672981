package app

import (
	"testing"

	"quiz-score-service/internal/domain"
)

func TestEvaluateStreakFollowsSubmissionOrder(t *testing.T) {
	questions := map[string]domain.Question{
		"a": {ID: "a", Options: []string{"y", "n"}, CorrectIndex: 0},
		"b": {ID: "b", Options: []string{"y", "n"}, CorrectIndex: 0},
		"c": {ID: "c", Options: []string{"y", "n"}, CorrectIndex: 0},
		"d": {ID: "d", Options: []string{"y", "n"}, CorrectIndex: 0},
	}
	cases := []struct {
		name    string
		pattern string // y = correct, n = wrong
		streak  int
	}{
		{"correct correct wrong correct", "yyny", 2},
		{"all wrong", "nnnn", 0},
		{"all correct", "yyyy", 4},
		{"trailing run", "nyyy", 3},
	}
	ids := []string{"a", "b", "c", "d"}
	for _, tc := range cases {
		answers := make([]domain.AnswerSubmission, len(tc.pattern))
		for i, r := range tc.pattern {
			answers[i] = domain.AnswerSubmission{QuestionID: ids[i], SelectedAnswer: string(r)}
		}
		ev := evaluate(answers, questions)
		if ev.maxStreak != tc.streak {
			t.Fatalf("%s: expected streak %d, got %d", tc.name, tc.streak, ev.maxStreak)
		}
		if ev.correct > ev.total || ev.score < 0 || ev.score > 100 {
			t.Fatalf("%s: invariants broken %+v", tc.name, ev)
		}
		if ev.score != domain.ScorePercent(ev.correct, ev.total) {
			t.Fatalf("%s: score %d does not match %d/%d", tc.name, ev.score, ev.correct, ev.total)
		}
	}
}

func TestEvaluateAggregatesStatsPerDistinctQuestion(t *testing.T) {
	questions := map[string]domain.Question{
		"a": {ID: "a", Options: []string{"y", "n"}, CorrectIndex: 0, Points: 5},
	}
	ev := evaluate([]domain.AnswerSubmission{
		{QuestionID: "a", SelectedAnswer: "y", TimeSpent: 3},
		{QuestionID: "a", SelectedAnswer: "n", TimeSpent: -4},
		{QuestionID: "missing", SelectedAnswer: "y"},
	}, questions)

	if len(ev.stats) != 1 || ev.stats[0].Answered != 2 || ev.stats[0].Correct != 1 {
		t.Fatalf("unexpected stats %+v", ev.stats)
	}
	if ev.pointsEarned != 5 || ev.total != 3 || ev.correct != 1 || ev.score != 33 {
		t.Fatalf("unexpected evaluation %+v", ev)
	}
	if ev.outcomes[1].TimeSpent != 0 || ev.outcomes[0].TimeSpent != 3 {
		t.Fatalf("unexpected time spent %+v", ev.outcomes)
	}
}
