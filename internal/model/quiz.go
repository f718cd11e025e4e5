package model

// Question is one quiz prompt. The expected lemma is never part of it.
type Question struct {
	ID   int64  `json:"id"`
	Zh   string `json:"zh"`
	Hint string `json:"hint"`
}

// QuizAnswer is one submitted answer. A nil ID marks an entry whose id could
// not be read as an integer; the grader skips it.
type QuizAnswer struct {
	ID     *int64
	Answer string
}

// GradeDetail reports the outcome for one scored answer.
type GradeDetail struct {
	ID       int64  `json:"id"`
	Correct  bool   `json:"correct"`
	Expected string `json:"expected"`
	Given    string `json:"given"`
}

// GradeReport summarises a graded submission. Accuracy is 0 when Total is 0.
type GradeReport struct {
	Total    int           `json:"total"`
	Correct  int           `json:"correct"`
	Accuracy float64       `json:"accuracy"`
	Details  []GradeDetail `json:"details"`
}
