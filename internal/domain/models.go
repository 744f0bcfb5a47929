package domain

// Phase is the controller's coarse state.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
	PhaseReviewing  Phase = "reviewing"
)

// AnswerRecord is appended exactly once per resolved question.
type AnswerRecord struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	SelectedIndex int      `json:"selectedIndex"`
	CorrectIndex  int      `json:"correctIndex"`
	IsCorrect     bool     `json:"isCorrect"`
}

// NewAnswerRecord fixes the outcome of a question. A NoAnswer selection is never correct.
func NewAnswerRecord(q Question, selected int) AnswerRecord {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return AnswerRecord{
		QuestionText:  q.Text,
		Options:       options,
		SelectedIndex: selected,
		CorrectIndex:  q.CorrectIndex,
		IsCorrect:     selected != NoAnswer && selected == q.CorrectIndex,
	}
}

// Urgency is the styling tier of the countdown.
type Urgency string

const (
	UrgencyNormal  Urgency = "normal"
	UrgencyWarning Urgency = "warning"
	UrgencyDanger  Urgency = "danger"
)

// UrgencyFor maps remaining seconds to a tier.
func UrgencyFor(remaining int) Urgency {
	switch {
	case remaining <= 3:
		return UrgencyDanger
	case remaining <= 5:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

// ScoreTier is the styling tier of a final percentage.
type ScoreTier string

const (
	ScoreHigh ScoreTier = "high"
	ScoreMid  ScoreTier = "mid"
	ScoreLow  ScoreTier = "low"
)

// ScoreTierFor maps a percentage to a tier.
func ScoreTierFor(percentage int) ScoreTier {
	switch {
	case percentage >= 80:
		return ScoreHigh
	case percentage >= 60:
		return ScoreMid
	default:
		return ScoreLow
	}
}

// QuestionView is what the display needs to draw the active question.
type QuestionView struct {
	Number      int      `json:"number"`
	Total       int      `json:"total"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	IsLast      bool     `json:"isLast"`
	Resolved    bool     `json:"resolved"`
	FinishReady bool     `json:"finishReady"`
	// Selected and Correct are only meaningful once Resolved; Selected is NoAnswer on timeout.
	Selected int `json:"selected"`
	Correct  int `json:"correct"`
}

// CountdownView carries the remaining seconds and its urgency tier.
type CountdownView struct {
	Remaining int     `json:"remaining"`
	Tier      Urgency `json:"tier"`
}

// ResultSummary is derived on demand from score and question count.
type ResultSummary struct {
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage int       `json:"percentage"`
	Tier       ScoreTier `json:"tier"`
}

// ReviewEntry is one row of the post-quiz review.
type ReviewEntry struct {
	Number        int    `json:"number"`
	Question      string `json:"question"`
	Correct       bool   `json:"correct"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
}

// Snapshot is the full read-only projection pushed to the presentation layer.
type Snapshot struct {
	Phase     Phase          `json:"phase"`
	Total     int            `json:"total"`
	Question  *QuestionView  `json:"question,omitempty"`
	Countdown *CountdownView `json:"countdown,omitempty"`
	Result    *ResultSummary `json:"result,omitempty"`
	Review    []ReviewEntry  `json:"review,omitempty"`
}

// EventType distinguishes state pushes from user-facing errors.
type EventType string

const (
	EventState EventType = "state"
	EventError EventType = "error"
)

// Event is a notification from a session to its presentation layer.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot Snapshot  `json:"snapshot"`
	Message  string    `json:"message,omitempty"`
}

// CommandType enumerates what the presentation layer may ask for.
type CommandType string

const (
	CommandStart   CommandType = "start"
	CommandSelect  CommandType = "select"
	CommandFinish  CommandType = "finish"
	CommandReview  CommandType = "review"
	CommandResults CommandType = "results"
	CommandRestart CommandType = "restart"
)

// Command is a user intent forwarded by the presentation layer.
type Command struct {
	Type  CommandType `json:"type"`
	Index int         `json:"index,omitempty"`
}
