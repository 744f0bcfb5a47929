package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
	"timed-quiz-service/internal/transport/terminal"
)

// NewPlayCmd runs a single quiz session in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		path    string
		setID   string
		noColor bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(*configPath)
			if err != nil {
				return err
			}
			if path != "" {
				cfg.Quiz.File = path
				cfg.Quiz.URL = ""
				cfg.Postgres.URL = ""
			}
			if setID != "" {
				cfg.Quiz.Set = setID
			}
			// the terminal owns stdout; keep the logger out of the way
			if cfg.Log.Level == "" {
				cfg.Log.Level = "warn"
			}
			return runPlay(cmd.Context(), cfg, !noColor)
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "question file or directory")
	cmd.Flags().StringVar(&setID, "set", "", "question set id")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI colours")
	return cmd
}

func runPlay(ctx context.Context, cfg config.Config, color bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := config.NewLogger(cfg)

	b, err := openBackends(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer b.Close()

	store := memory.NewSessionStore(log)
	service := app.NewQuizService(store, b.questionRepository(cfg, log), cfg.Quiz.Set, log)

	sessionID := uuid.NewString()
	runner, err := service.Open(ctx, sessionID)
	defer store.DeleteIfIdle(sessionID)
	if err != nil {
		fmt.Fprintln(os.Stdout, domain.UserMessage(err))
	}

	presenter := terminal.NewPresenter(os.Stdin, os.Stdout, color)
	if err := presenter.Run(ctx, runner); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
