package domain

import "fmt"

// Score is the immutable correct/total summary of a graded response.
type Score struct {
	correct int
	total   int
}

// NewScore validates the pair and builds a Score. Both counts must be
// non-negative and correct cannot exceed total.
func NewScore(correct, total int) (Score, error) {
	if correct < 0 {
		return Score{}, fmt.Errorf("%w: correct answers cannot be negative", ErrInvalidScore)
	}
	if total < 0 {
		return Score{}, fmt.Errorf("%w: total answers cannot be negative", ErrInvalidScore)
	}
	if correct > total {
		return Score{}, fmt.Errorf("%w: correct answers cannot exceed total answers", ErrInvalidScore)
	}
	return Score{correct: correct, total: total}, nil
}

// CorrectAnswers returns the number of correct answers.
func (s Score) CorrectAnswers() int {
	return s.correct
}

// TotalAnswers returns the total number of answers.
func (s Score) TotalAnswers() int {
	return s.total
}

// IncorrectAnswers returns the number of incorrect answers.
func (s Score) IncorrectAnswers() int {
	return s.total - s.correct
}

// Percentage returns the score as a percentage, 0.0 for an empty response.
func (s Score) Percentage() float64 {
	if s.total == 0 {
		return 0.0
	}
	return float64(s.correct) / float64(s.total) * 100
}

// IsPerfect reports whether every answer was correct. The float comparison is
// exact because 100% only arises from correct == total.
func (s Score) IsPerfect() bool {
	return s.Percentage() == 100.0
}

// IsFailure reports whether the score is below the 60% passing mark.
func (s Score) IsFailure() bool {
	return s.Percentage() < 60.0
}

// LetterGrade maps the percentage onto the A-F scale, boundaries inclusive on
// the lower end of each band.
func (s Score) LetterGrade() string {
	percentage := s.Percentage()
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

func (s Score) String() string {
	return fmt.Sprintf("%d/%d (%.1f%%)", s.correct, s.total, s.Percentage())
}
