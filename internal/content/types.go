package content

// Question types supported by the game client.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeDragDrop       = "drag_drop"
)

// Curriculum stages.
const (
	StageKS1 = "KS1"
	StageKS2 = "KS2"
	StageKS3 = "KS3"
)

// Year-group bounds applied at write time when a question omits them.
const (
	DefaultMinYearGroup = 1
	DefaultMaxYearGroup = 9
)

// Question is a single catalog item. Immutable once created.
type Question struct {
	ID            int      `json:"id"`
	TopicID       int      `json:"topicId"`
	Content       string   `json:"content"`
	Type          string   `json:"type"`
	CorrectAnswer string   `json:"correctAnswer"`
	Distractors   []string `json:"distractors"`
	Difficulty    int      `json:"difficulty"`
	MinYearGroup  int      `json:"minYearGroup"`
	MaxYearGroup  int      `json:"maxYearGroup"`
	Explanation   string   `json:"explanation,omitempty"`
}

// InYearRange reports whether a student in the given year group may
// be served this question.
func (q Question) InYearRange(yearGroup int) bool {
	return yearGroup >= q.MinYearGroup && yearGroup <= q.MaxYearGroup
}

// Topic is immutable reference data grouping questions.
type Topic struct {
	ID          int    `json:"id"`
	SubjectID   int    `json:"subjectId"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Stage       string `json:"stage"`
	Description string `json:"description,omitempty"`
}

// Subject is a top-level curriculum area (e.g. Science, Maths).
type Subject struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
