package session

import (
	"math"

	"github.com/teachexamhub/examhub-backend/internal/model"
)

// Progress returns the percentage of questions answered, rounded to the
// nearest integer. Missing entries count as unanswered.
func Progress(questions model.Questions, answers model.AnswerMap) int {
	if len(questions) == 0 {
		return 0
	}
	answered := 0
	for _, q := range questions {
		if a, ok := answers[q.QuestionID()]; ok && model.IsAnswered(a) {
			answered++
		}
	}
	return int(math.Round(100 * float64(answered) / float64(len(questions))))
}
