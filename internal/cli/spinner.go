package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// spinner animates a status line while a blocking API call runs. It draws
// nothing unless w is a terminal.
type spinner struct {
	w       io.Writer
	msg     string
	animate bool

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newSpinner(w io.Writer, msg string) *spinner {
	return &spinner{
		w:       w,
		msg:     msg,
		animate: isTerminal(w),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// start draws frames until Stop is called or ctx ends.
func (s *spinner) start(ctx context.Context) {
	if !s.animate {
		close(s.done)
		return
	}
	go func() {
		defer close(s.done)
		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()
		for i := 0; ; i++ {
			frame := StyleHighlight.Render(spinnerFrames[i%len(spinnerFrames)])
			fmt.Fprintf(s.w, "\r%s %s", frame, StyleDim.Render(s.msg))
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-tick.C:
			}
		}
	}()
}

// Stop ends the animation and clears the line. It may be called more than
// once.
func (s *spinner) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	if s.animate {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len([]rune(s.msg))+2))
	}
}

// withSpinner runs fn while a spinner shows msg on w. A failure is reported
// on the status line before the error is returned.
func withSpinner[T any](ctx context.Context, w io.Writer, msg string, fn func() (T, error)) (T, error) {
	s := newSpinner(w, msg)
	s.start(ctx)
	v, err := fn()
	s.Stop()
	if err != nil && s.animate {
		printError("%s", msg)
	}
	return v, err
}
