package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"

	checkMark = "✅"
	crossMark = "❌"
)

// Presenter draws session events on a terminal and turns typed lines into
// commands. It never touches controller state directly.
type Presenter struct {
	in    io.Reader
	out   io.Writer
	color bool
}

func NewPresenter(in io.Reader, out io.Writer, color bool) *Presenter {
	return &Presenter{in: in, out: out, color: color}
}

// Run drives one session until the user quits, input ends or ctx is done.
func (p *Presenter) Run(ctx context.Context, runner *app.Runner) error {
	events, cancel := runner.Subscribe()
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.Render(ev)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, quit, valid := ParseCommand(line)
			if quit {
				return nil
			}
			if !valid {
				fmt.Fprintln(p.out, p.colorize("Unknown input: "+strings.TrimSpace(line), colorYellow))
				continue
			}
			// start failures come back as error events
			if err := runner.Dispatch(cmd); errors.Is(err, domain.ErrSessionClosed) {
				return err
			}
		}
	}
}

// ParseCommand maps typed input to a command. Options are numbered from 1 or
// lettered from A.
func ParseCommand(line string) (cmd domain.Command, quit, ok bool) {
	input := strings.ToLower(strings.TrimSpace(line))
	switch input {
	case "":
		return domain.Command{}, false, false
	case "q", "quit", "exit":
		return domain.Command{}, true, false
	case "s", "start":
		return domain.Command{Type: domain.CommandStart}, false, true
	case "f", "finish":
		return domain.Command{Type: domain.CommandFinish}, false, true
	case "r", "review":
		return domain.Command{Type: domain.CommandReview}, false, true
	case "b", "back", "results":
		return domain.Command{Type: domain.CommandResults}, false, true
	case "x", "restart":
		return domain.Command{Type: domain.CommandRestart}, false, true
	}
	if n, err := strconv.Atoi(input); err == nil && n > 0 {
		return domain.Command{Type: domain.CommandSelect, Index: n - 1}, false, true
	}
	if len(input) == 1 && input[0] >= 'a' && input[0] <= 'z' {
		return domain.Command{Type: domain.CommandSelect, Index: int(input[0] - 'a')}, false, true
	}
	return domain.Command{}, false, false
}

// Render draws one event.
func (p *Presenter) Render(ev domain.Event) {
	if ev.Type == domain.EventError {
		fmt.Fprintln(p.out, p.colorize(crossMark+" "+ev.Message, colorRed+colorBold))
		return
	}
	if p.color {
		fmt.Fprint(p.out, "\033[2J\033[H")
	}
	for _, line := range p.lines(ev.Snapshot) {
		fmt.Fprintln(p.out, line)
	}
}

func (p *Presenter) lines(snap domain.Snapshot) []string {
	switch snap.Phase {
	case domain.PhaseInProgress:
		return p.questionLines(snap)
	case domain.PhaseFinished:
		return p.resultLines(snap)
	case domain.PhaseReviewing:
		return p.reviewLines(snap)
	default:
		return []string{
			p.colorize("Timed Quiz", colorBold+colorCyan),
			"----------",
			fmt.Sprintf("%d questions, %d seconds each.", snap.Total, app.QuestionSeconds),
			"Type 's' to start, 'q' to quit.",
		}
	}
}

func (p *Presenter) questionLines(snap domain.Snapshot) []string {
	q := snap.Question
	if q == nil {
		return nil
	}
	timer := ""
	if cd := snap.Countdown; cd != nil {
		timer = p.colorize(fmt.Sprintf("⏱ %ds", cd.Remaining), urgencyColor(cd.Tier))
	}
	lines := []string{
		fmt.Sprintf("Question %d of %d   %s", q.Number, q.Total, timer),
		"",
		p.colorize(q.Text, colorBold+colorCyan),
		"",
	}
	for i, option := range q.Options {
		line := fmt.Sprintf("  %d) %s", i+1, option)
		if q.Resolved {
			switch {
			case i == q.Correct:
				line = p.colorize(line+" "+checkMark, colorGreen)
			case i == q.Selected:
				line = p.colorize(line+" "+crossMark, colorRed)
			}
		}
		lines = append(lines, line)
	}
	lines = append(lines, "")
	switch {
	case q.FinishReady:
		lines = append(lines, p.colorize("Type 'f' to finish the quiz.", colorYellow))
	case q.Resolved && q.Selected == domain.NoAnswer:
		lines = append(lines, p.colorize("Time's up! Next question shortly...", colorYellow))
	case q.Resolved:
		lines = append(lines, "Next question shortly...")
	default:
		lines = append(lines, "Type the option number and press Enter.")
	}
	return lines
}

func (p *Presenter) resultLines(snap domain.Snapshot) []string {
	res := snap.Result
	if res == nil {
		return nil
	}
	return []string{
		p.colorize("Quiz complete!", colorBold+colorCyan),
		"",
		fmt.Sprintf("You scored %d of %d (%s).", res.Score, res.Total,
			p.colorize(fmt.Sprintf("%d%%", res.Percentage), scoreColor(res.Tier))),
		"",
		"Type 'r' to review answers, 'x' to restart, 'q' to quit.",
	}
}

func (p *Presenter) reviewLines(snap domain.Snapshot) []string {
	lines := []string{p.colorize("Review", colorBold+colorCyan), ""}
	for _, entry := range snap.Review {
		status := p.colorize(crossMark+" Incorrect", colorRed+colorBold)
		if entry.Correct {
			status = p.colorize(checkMark+" Correct", colorGreen+colorBold)
		}
		lines = append(lines,
			status,
			fmt.Sprintf("%d. %s", entry.Number, entry.Question),
			"   Your Answer: "+entry.UserAnswer,
		)
		if !entry.Correct {
			lines = append(lines, p.colorize("   Correct Answer: "+entry.CorrectAnswer, colorGreen))
		}
		lines = append(lines, "")
	}
	return append(lines, "Type 'b' to go back to results, 'x' to restart, 'q' to quit.")
}

func (p *Presenter) colorize(s, color string) string {
	if !p.color || color == "" {
		return s
	}
	return color + s + colorReset
}

func urgencyColor(tier domain.Urgency) string {
	switch tier {
	case domain.UrgencyDanger:
		return colorRed + colorBold
	case domain.UrgencyWarning:
		return colorYellow
	default:
		return colorGreen
	}
}

func scoreColor(tier domain.ScoreTier) string {
	switch tier {
	case domain.ScoreHigh:
		return colorGreen + colorBold
	case domain.ScoreMid:
		return colorYellow + colorBold
	default:
		return colorRed + colorBold
	}
}
