package quiz

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeShortAnswer    QuestionType = "short_answer"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// PointsFor maps difficulty to the per-question point value. Unknown
// difficulties score as medium.
func PointsFor(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyHard:
		return 3
	default:
		return 2
	}
}

type Question struct {
	ID             string       `json:"id"`
	Text           string       `json:"text"`
	Type           QuestionType `json:"type"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswers []string     `json:"correct_answers,omitempty"`
	Explanation    string       `json:"explanation,omitempty"`
	Points         int          `json:"points"`
	Difficulty     Difficulty   `json:"difficulty"`
	AIGenerated    bool         `json:"ai_generated"`
	OrderIndex     int          `json:"order_index"`
}

func (q Question) Validate() error {
	if q.Text == "" {
		return &ValidationError{Field: "text", Reason: "question text required"}
	}
	if q.Points <= 0 {
		return &ValidationError{Field: "points", Reason: "points must be positive"}
	}
	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) == 0 {
			return &ValidationError{Field: "options", Reason: "multiple_choice requires options"}
		}
	case TypeTrueFalse, TypeShortAnswer:
		if len(q.Options) != 0 && q.Type == TypeShortAnswer {
			return &ValidationError{Field: "options", Reason: "short_answer takes no options"}
		}
	default:
		return &ValidationError{Field: "type", Reason: "unknown question type " + string(q.Type)}
	}
	if len(q.CorrectAnswers) == 0 {
		return &ValidationError{Field: "correct_answers", Reason: "at least one accepted answer required"}
	}
	return nil
}

type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	CourseID         string     `json:"course_id"`
	AuthorID         string     `json:"author_id"`
	Questions        []Question `json:"questions"`
	TotalPoints      int        `json:"total_points"`
	TimeLimitMinutes int        `json:"time_limit_minutes"` // 0 = unlimited
	MaxAttempts      int        `json:"max_attempts"`
	PassingScore     int        `json:"passing_score"` // percentage 0-100
	Published        bool       `json:"published"`
	Difficulty       Difficulty `json:"difficulty"`
	AIGenerated      bool       `json:"ai_generated"`
	CreatedAt        int64      `json:"created_at,omitempty"`
}

// NewQuiz builds a quiz, computing TotalPoints from its questions and
// validating every invariant up front.
func NewQuiz(id, title, description, courseID, authorID string, questions []Question) (*Quiz, error) {
	z := &Quiz{
		ID:          id,
		Title:       title,
		Description: description,
		CourseID:    courseID,
		AuthorID:    authorID,
		Questions:   questions,
	}
	for i := range z.Questions {
		z.Questions[i].OrderIndex = i
		z.TotalPoints += z.Questions[i].Points
	}
	if err := z.Validate(); err != nil {
		return nil, err
	}
	return z, nil
}

func (z *Quiz) Validate() error {
	if len(z.Questions) == 0 {
		return &ValidationError{Field: "questions", Reason: "quiz must contain at least one question"}
	}
	sum := 0
	for _, q := range z.Questions {
		if err := q.Validate(); err != nil {
			return err
		}
		sum += q.Points
	}
	if z.TotalPoints != sum {
		return &ValidationError{Field: "total_points", Reason: "total_points does not equal sum of question points"}
	}
	if z.PassingScore < 0 || z.PassingScore > 100 {
		return &ValidationError{Field: "passing_score", Reason: "passing_score must be 0-100"}
	}
	if z.TimeLimitMinutes < 0 {
		return &ValidationError{Field: "time_limit_minutes", Reason: "time limit cannot be negative"}
	}
	return nil
}

// StripAnswers returns a learner-safe copy of the quiz with answer keys and
// explanations removed.
func (z *Quiz) StripAnswers() Quiz {
	out := *z
	out.Questions = make([]Question, len(z.Questions))
	for i, q := range z.Questions {
		q.CorrectAnswers = nil
		q.Explanation = ""
		out.Questions[i] = q
	}
	return out
}

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptTimedOut   AttemptStatus = "timed_out"
)

type Attempt struct {
	ID           string              `json:"id"`
	QuizID       string              `json:"quiz_id"`
	LearnerID    string              `json:"learner_id"`
	Answers      map[string][]string `json:"answers"` // questionID -> submitted answer strings
	Status       AttemptStatus       `json:"status"`
	StartedAt    int64               `json:"started_at"`
	CompletedAt  int64               `json:"completed_at,omitempty"`
	CorrectCount int                 `json:"correct_count"`
	EarnedPoints int                 `json:"earned_points"`
	TotalPoints  int                 `json:"total_points"`
	Percentage   float64             `json:"percentage"`
	Passed       bool                `json:"passed"`
}

// Finalized reports whether the attempt has reached a terminal status.
func (a *Attempt) Finalized() bool {
	return a.Status == AttemptSubmitted || a.Status == AttemptTimedOut
}
