package cli

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/infra/file"
	"timed-quiz-service/internal/infra/httpsource"
	"timed-quiz-service/internal/infra/memory"
)

func TestQuestionLoaderSelection(t *testing.T) {
	log := logrus.New()
	b := &backends{}

	cfg := config.Config{}
	require.IsType(t, &memory.StaticLoader{}, b.questionLoader(cfg, log))

	cfg.Quiz.File = "questions"
	require.IsType(t, &file.QuestionLoader{}, b.questionLoader(cfg, log))

	cfg.Quiz.URL = "http://example.invalid/{set}.json"
	require.IsType(t, &httpsource.QuestionLoader{}, b.questionLoader(cfg, log))
}

func TestSampleQuestionSetsAreValid(t *testing.T) {
	b := &backends{}
	cfg := config.Config{}
	cfg.Quiz.Set = config.DefaultSet

	repo := b.questionRepository(cfg, logrus.New())
	set, err := repo.GetQuestionSet(context.Background(), config.DefaultSet)
	require.NoError(t, err)
	require.NotEmpty(t, set.Questions)
	require.NoError(t, set.Validate())
	require.IsType(t, &memory.SessionStore{}, b.sessionStore(cfg, logrus.New()))
	require.NoError(t, b.Close())
}
