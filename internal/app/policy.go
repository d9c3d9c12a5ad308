package app

import "quizhub-service/internal/domain"

// CanCreateQuiz reports whether r may author quizzes.
func CanCreateQuiz(r domain.Requester) bool {
	return r.Role == domain.RoleTeacher
}

// CanEditQuiz reports whether r may mutate quiz and its questions.
func CanEditQuiz(r domain.Requester, quiz domain.Quiz) bool {
	return r.ID != "" && r.ID == quiz.OwnerID
}

// CanViewQuiz hides other teachers' quizzes; every other role may look.
func CanViewQuiz(r domain.Requester, quiz domain.Quiz) bool {
	if r.Role == domain.RoleTeacher {
		return CanEditQuiz(r, quiz)
	}
	return true
}

// CanSeeAnswerKey reports whether r may see which choices are correct.
func CanSeeAnswerKey(r domain.Requester, quiz domain.Quiz) bool {
	return CanEditQuiz(r, quiz)
}

// CanViewResults restricts results to the quiz owner.
func CanViewResults(r domain.Requester, quiz domain.Quiz) bool {
	return CanEditQuiz(r, quiz)
}

// CanSubmit reports whether r takes quizzes.
func CanSubmit(r domain.Requester) bool {
	return r.Role == domain.RoleStudent
}
