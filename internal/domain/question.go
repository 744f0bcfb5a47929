package domain

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// NoAnswer marks an AnswerRecord for a question whose countdown ran out.
const NoAnswer = -1

// NoAnswerText is what the review shows for a NoAnswer record.
const NoAnswerText = "No answer (time up)"

// Question is an immutable multiple-choice record.
type Question struct {
	Text         string   `json:"q" yaml:"q" validate:"required"`
	Options      []string `json:"options" yaml:"options" validate:"min=2,dive,required"`
	CorrectIndex int      `json:"answer" yaml:"answer" validate:"gte=0"`
}

// QuestionSet is a named, ordered collection of questions.
type QuestionSet struct {
	ID        string     `json:"id" yaml:"id"`
	Questions []Question `json:"questions" yaml:"questions" validate:"dive"`
}

// QuestionSource is read once per session before start becomes reachable.
type QuestionSource interface {
	Questions(ctx context.Context) ([]Question, error)
}

// QuestionSourceFunc adapts a function to QuestionSource.
type QuestionSourceFunc func(ctx context.Context) ([]Question, error)

func (f QuestionSourceFunc) Questions(ctx context.Context) ([]Question, error) {
	return f(ctx)
}

// StaticSource serves a fixed slice of questions.
type StaticSource []Question

func (s StaticSource) Questions(context.Context) ([]Question, error) {
	return []Question(s), nil
}

var validate = validator.New()

// Validate checks a question set at the source boundary. An empty set is valid.
func (s QuestionSet) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.Wrapf(ErrInvalidQuestionSet, "set %q: %v", s.ID, err)
	}
	for i, q := range s.Questions {
		if q.CorrectIndex >= len(q.Options) {
			return errors.Wrapf(ErrInvalidQuestionSet, "set %q: question %d: answer index %d out of range", s.ID, i+1, q.CorrectIndex)
		}
	}
	return nil
}
