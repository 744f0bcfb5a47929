package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"timed-quiz-service/internal/domain"
)

const (
	// QuestionSeconds is the countdown budget every question starts with.
	QuestionSeconds = 10
	// AutoAdvanceDelay is how long feedback stays up before the next question.
	AutoAdvanceDelay = 2000 * time.Millisecond

	tickInterval = time.Second
)

// Notifier receives every state change and user-facing error of a controller.
type Notifier interface {
	Publish(domain.Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(domain.Event) {}

// Controller is the quiz session state machine. It is not safe for
// concurrent use: commands and scheduler callbacks must share one goroutine
// (see Runner).
type Controller struct {
	sched  Scheduler
	notify Notifier
	log    logrus.FieldLogger

	questions []domain.Question
	loaded    bool

	phase        domain.Phase
	currentIndex int
	score        int
	answers      []domain.AnswerRecord
	resolved     bool
	remaining    int

	countdown   Handle
	autoAdvance Handle
}

func NewController(sched Scheduler, notify Notifier, log logrus.FieldLogger) *Controller {
	if notify == nil {
		notify = nopNotifier{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		sched:  sched,
		notify: notify,
		log:    log,
		phase:  domain.PhaseIdle,
	}
}

// Load reads the question source and stores the result.
func (c *Controller) Load(ctx context.Context, src domain.QuestionSource) error {
	questions, err := src.Questions(ctx)
	return c.Loaded(questions, err)
}

// Loaded stores the outcome of a question source read. A failure is reported
// and leaves the controller Idle with nothing loaded.
func (c *Controller) Loaded(questions []domain.Question, err error) error {
	if err != nil {
		if !errors.Is(err, domain.ErrLoadFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrLoadFailure, err)
		}
		c.log.WithError(err).Warn("question load failed")
		c.report(err)
		return err
	}
	c.questions = questions
	c.loaded = true
	c.log.WithField("questions", len(questions)).Debug("questions loaded")
	c.publish()
	return nil
}

// Start begins a fresh attempt, discarding any prior state.
func (c *Controller) Start() error {
	if !c.loaded || len(c.questions) == 0 {
		c.report(domain.ErrNoQuestions)
		return domain.ErrNoQuestions
	}
	c.cancelHandles()
	c.reset()
	c.phase = domain.PhaseInProgress
	c.log.Debug("quiz started")
	c.displayQuestion()
	return nil
}

// SelectAnswer resolves the current question with the given option. It is a
// no-op once the question is resolved or when index is out of range.
func (c *Controller) SelectAnswer(index int) bool {
	if c.phase != domain.PhaseInProgress || c.resolved {
		return false
	}
	if index < 0 || index >= len(c.questions[c.currentIndex].Options) {
		return false
	}
	return c.resolve(index)
}

// TimeExpire resolves the current question as unanswered.
func (c *Controller) TimeExpire() bool {
	return c.resolve(domain.NoAnswer)
}

// Advance moves past a resolved question, finishing after the last one.
func (c *Controller) Advance() bool {
	if c.phase != domain.PhaseInProgress || !c.resolved {
		return false
	}
	c.cancelHandles()
	if c.currentIndex+1 < len(c.questions) {
		c.currentIndex++
		c.displayQuestion()
		return true
	}
	c.currentIndex = len(c.questions)
	c.resolved = false
	c.phase = domain.PhaseFinished
	c.log.WithFields(logrus.Fields{"score": c.score, "total": len(c.questions)}).Debug("quiz finished")
	c.publish()
	return true
}

// RequestFinish is the finish affordance of the final question.
func (c *Controller) RequestFinish() bool {
	if c.phase != domain.PhaseInProgress || !c.resolved || !c.isLast() {
		return false
	}
	return c.Advance()
}

// Restart abandons the attempt and returns to Idle.
func (c *Controller) Restart() {
	c.cancelHandles()
	c.reset()
	c.phase = domain.PhaseIdle
	c.publish()
}

func (c *Controller) EnterReview() bool {
	if c.phase != domain.PhaseFinished {
		return false
	}
	c.phase = domain.PhaseReviewing
	c.publish()
	return true
}

func (c *Controller) LeaveReview() bool {
	if c.phase != domain.PhaseReviewing {
		return false
	}
	c.phase = domain.PhaseFinished
	c.publish()
	return true
}

// Shutdown stops every pending callback without publishing.
func (c *Controller) Shutdown() {
	c.cancelHandles()
}

// HandleCommand applies a presentation command. Commands that are not valid
// in the current state are ignored.
func (c *Controller) HandleCommand(cmd domain.Command) error {
	switch cmd.Type {
	case domain.CommandStart:
		return c.Start()
	case domain.CommandSelect:
		c.SelectAnswer(cmd.Index)
	case domain.CommandFinish:
		c.RequestFinish()
	case domain.CommandReview:
		c.EnterReview()
	case domain.CommandResults:
		c.LeaveReview()
	case domain.CommandRestart:
		c.Restart()
	default:
		err := fmt.Errorf("%w: %q", domain.ErrUnknownCommand, cmd.Type)
		c.report(err)
		return err
	}
	return nil
}

// resolve is the single check-and-set that fixes a question's outcome.
func (c *Controller) resolve(selected int) bool {
	if c.phase != domain.PhaseInProgress || c.resolved {
		return false
	}
	c.resolved = true
	c.cancelHandles()

	record := domain.NewAnswerRecord(c.questions[c.currentIndex], selected)
	c.answers = append(c.answers, record)
	if record.IsCorrect {
		c.score++
	}
	c.log.WithFields(logrus.Fields{
		"question": c.currentIndex + 1,
		"selected": selected,
		"correct":  record.IsCorrect,
	}).Debug("question resolved")

	if !c.isLast() {
		c.autoAdvance = c.sched.AfterFunc(AutoAdvanceDelay, func() {
			c.autoAdvance = nil
			c.Advance()
		})
	}
	c.publish()
	return true
}

func (c *Controller) displayQuestion() {
	c.resolved = false
	c.remaining = QuestionSeconds
	c.countdown = c.sched.Every(tickInterval, c.tick)
	c.publish()
}

func (c *Controller) tick() {
	if c.phase != domain.PhaseInProgress || c.resolved {
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.TimeExpire()
		return
	}
	c.publish()
}

func (c *Controller) cancelHandles() {
	if c.countdown != nil {
		c.countdown.Stop()
		c.countdown = nil
	}
	if c.autoAdvance != nil {
		c.autoAdvance.Stop()
		c.autoAdvance = nil
	}
}

func (c *Controller) reset() {
	c.currentIndex = 0
	c.score = 0
	c.answers = nil
	c.resolved = false
	c.remaining = QuestionSeconds
}

func (c *Controller) isLast() bool {
	return c.currentIndex == len(c.questions)-1
}

func (c *Controller) publish() {
	c.notify.Publish(domain.Event{Type: domain.EventState, Snapshot: c.Snapshot()})
}

func (c *Controller) report(err error) {
	c.notify.Publish(domain.Event{
		Type:     domain.EventError,
		Snapshot: c.Snapshot(),
		Message:  domain.UserMessage(err),
	})
}

func (c *Controller) Phase() domain.Phase { return c.phase }

func (c *Controller) Score() int { return c.score }

func (c *Controller) CurrentIndex() int { return c.currentIndex }

func (c *Controller) Resolved() bool { return c.resolved }

func (c *Controller) Total() int { return len(c.questions) }

// Answers returns a copy of the records appended so far.
func (c *Controller) Answers() []domain.AnswerRecord {
	out := make([]domain.AnswerRecord, len(c.answers))
	copy(out, c.answers)
	return out
}

// CurrentQuestion describes the active question while a quiz is in progress.
func (c *Controller) CurrentQuestion() (domain.QuestionView, bool) {
	if c.phase != domain.PhaseInProgress {
		return domain.QuestionView{}, false
	}
	q := c.questions[c.currentIndex]
	view := domain.QuestionView{
		Number:      c.currentIndex + 1,
		Total:       len(c.questions),
		Text:        q.Text,
		Options:     q.Options,
		IsLast:      c.isLast(),
		Resolved:    c.resolved,
		FinishReady: c.resolved && c.isLast(),
		Selected:    domain.NoAnswer,
		Correct:     domain.NoAnswer,
	}
	if c.resolved && len(c.answers) > 0 {
		last := c.answers[len(c.answers)-1]
		view.Selected = last.SelectedIndex
		view.Correct = last.CorrectIndex
	}
	return view, true
}

func (c *Controller) Countdown() (domain.CountdownView, bool) {
	if c.phase != domain.PhaseInProgress {
		return domain.CountdownView{}, false
	}
	return domain.CountdownView{Remaining: c.remaining, Tier: domain.UrgencyFor(c.remaining)}, true
}

// Result is available once the quiz has finished.
func (c *Controller) Result() (domain.ResultSummary, bool) {
	if c.phase != domain.PhaseFinished && c.phase != domain.PhaseReviewing {
		return domain.ResultSummary{}, false
	}
	pct := Percentage(c.score, len(c.questions))
	return domain.ResultSummary{
		Score:      c.score,
		Total:      len(c.questions),
		Percentage: pct,
		Tier:       domain.ScoreTierFor(pct),
	}, true
}

// Review projects the answers in question order.
func (c *Controller) Review() []domain.ReviewEntry {
	entries := make([]domain.ReviewEntry, 0, len(c.answers))
	for i, a := range c.answers {
		entry := domain.ReviewEntry{
			Number:     i + 1,
			Question:   a.QuestionText,
			Correct:    a.IsCorrect,
			UserAnswer: domain.NoAnswerText,
		}
		if a.SelectedIndex != domain.NoAnswer {
			entry.UserAnswer = optionText(a.Options, a.SelectedIndex)
		}
		if !a.IsCorrect {
			entry.CorrectAnswer = optionText(a.Options, a.CorrectIndex)
		}
		entries = append(entries, entry)
	}
	return entries
}

// Snapshot is the full projection pushed to the presentation layer.
func (c *Controller) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{Phase: c.phase, Total: len(c.questions)}
	if q, ok := c.CurrentQuestion(); ok {
		snap.Question = &q
	}
	if cd, ok := c.Countdown(); ok {
		snap.Countdown = &cd
	}
	if res, ok := c.Result(); ok {
		snap.Result = &res
	}
	if c.phase == domain.PhaseReviewing {
		snap.Review = c.Review()
	}
	return snap
}

// Percentage is round(score / total * 100).
func Percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

func optionText(options []string, index int) string {
	if index < 0 || index >= len(options) {
		return ""
	}
	return options[index]
}
