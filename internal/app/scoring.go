package app

import "quiz-score-service/internal/domain"

// evaluation is the pure outcome of scoring a list of answers.
type evaluation struct {
	outcomes     []domain.AnswerOutcome
	correct      int
	total        int
	pointsEarned int
	maxStreak    int
	score        int
	stats        []domain.QuestionStatsDelta
}

// evaluate scores answers in submission order. Answers whose question is
// missing from questions count as incorrect and earn nothing.
func evaluate(answers []domain.AnswerSubmission, questions map[string]domain.Question) evaluation {
	ev := evaluation{
		outcomes: make([]domain.AnswerOutcome, 0, len(answers)),
		total:    len(answers),
	}

	statsIdx := make(map[string]int)
	streak := 0
	for _, a := range answers {
		correct := false
		q, found := questions[a.QuestionID]
		if found {
			correct = q.IsCorrect(a.SelectedAnswer)

			i, seen := statsIdx[q.ID]
			if !seen {
				i = len(ev.stats)
				statsIdx[q.ID] = i
				ev.stats = append(ev.stats, domain.QuestionStatsDelta{QuestionID: q.ID})
			}
			ev.stats[i].Answered++
			if correct {
				ev.stats[i].Correct++
			}
		}

		if correct {
			ev.correct++
			ev.pointsEarned += q.EffectivePoints()
			streak++
			if streak > ev.maxStreak {
				ev.maxStreak = streak
			}
		} else {
			streak = 0
		}

		timeSpent := a.TimeSpent
		if timeSpent < 0 {
			timeSpent = 0
		}
		ev.outcomes = append(ev.outcomes, domain.AnswerOutcome{
			QuestionID:     a.QuestionID,
			SelectedAnswer: a.SelectedAnswer,
			Correct:        correct,
			TimeSpent:      timeSpent,
		})
	}

	ev.score = domain.ScorePercent(ev.correct, ev.total)
	return ev
}
