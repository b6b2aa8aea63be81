package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"taskora/internal/domain"
	"taskora/internal/logger"
)

const helpText = `commands:
  list | refresh              show tasks / re-fetch from the API
  filter <all|pending|in-progress|completed>
  search [text]               empty text clears the search
  new                         start a new task (clears the form)
  title <text>                set the form title
  desc <text>                 set the form description
  status <status>             set the form status
  edit <n>                    load visible task n into the form
  delete <n>                  delete visible task n
  save                        create or update from the form
  clear                       reset the form
  theme                       toggle light/dark
  help | quit
`

// Feed delivers task events; apiclient.Client implements it.
type Feed interface {
	Subscribe(ctx context.Context, ready func(), fn func(domain.TaskEvent)) error
}

// Shell is the line-oriented front end over a Model.
type Shell struct {
	model    *Model
	renderer Renderer

	mu  sync.Mutex // serializes writes to out
	out io.Writer
}

func NewShell(model *Model, out io.Writer, renderer Renderer) *Shell {
	return &Shell{model: model, renderer: renderer, out: out}
}

// Run reads commands until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	if err := s.model.Load(ctx); err != nil {
		logger.Warn("initial load failed", "error", err)
	}
	s.render()

	sc := bufio.NewScanner(in)
	for {
		s.print("> ")
		if !sc.Scan() {
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := s.Exec(ctx, sc.Text()); quit {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch strings.ToLower(cmd) {
	case "":
		return false
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.print(helpText)
		return false
	case "list", "ls":
	case "refresh":
		err = s.model.Load(ctx)
	case "filter":
		if arg == "" {
			arg = FilterAll
		}
		err = s.model.SetFilter(arg)
	case "search":
		s.model.SetSearch(arg)
	case "new", "clear":
		s.model.ResetForm()
	case "title":
		s.model.SetTitle(arg)
	case "desc":
		s.model.SetDescription(arg)
	case "status":
		err = s.model.SetStatus(arg)
	case "edit":
		var t domain.Task
		if t, err = s.pick(arg); err == nil {
			err = s.model.Edit(t.ID)
		}
	case "delete", "rm":
		var t domain.Task
		if t, err = s.pick(arg); err == nil {
			err = s.model.Delete(ctx, t.ID)
		}
	case "save":
		err = s.model.Submit(ctx)
	case "theme":
		s.model.ToggleTheme()
	default:
		s.print(fmt.Sprintf("unknown command %q, try help\n", cmd))
		return false
	}

	if note := usageNote(err); note != "" {
		s.print(note + "\n")
	}
	s.render()
	return false
}

// pick resolves a 1-based position in the visible list.
func (s *Shell) pick(arg string) (domain.Task, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return domain.Task{}, errBadIndex
	}
	visible := s.model.Visible()
	if n < 1 || n > len(visible) {
		return domain.Task{}, errBadIndex
	}
	return visible[n-1], nil
}

var errBadIndex = errors.New("no such task in the visible list")

// usageNote explains errors that the error banner does not already show.
func usageNote(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "busy: wait for the current request to finish"
	case errors.Is(err, errBadIndex):
		return errBadIndex.Error()
	case errors.Is(err, domain.ErrInvalidStatus):
		return domain.ErrInvalidStatus.Error()
	}
	return ""
}

// Watch re-fetches on every task event until ctx is done, reconnecting
// after retry when the feed drops.
func (s *Shell) Watch(ctx context.Context, feed Feed, retry time.Duration) {
	for {
		err := feed.Subscribe(ctx,
			func() { s.refresh(ctx) },
			func(ev domain.TaskEvent) {
				logger.Debug("task event", "type", ev.Type, "task_id", ev.TaskID)
				s.refresh(ctx)
			})
		if ctx.Err() != nil {
			return
		}
		logger.Warn("task feed disconnected", "error", err, "retry_in", retry)

		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}

func (s *Shell) refresh(ctx context.Context) {
	if err := s.model.Load(ctx); err != nil {
		logger.Warn("reload failed", "error", err)
	}
	s.render()
}

func (s *Shell) render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.renderer.Render(s.out, s.model.View()); err != nil {
		logger.Error("render failed", "error", err)
	}
}

func (s *Shell) print(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, text)
}
