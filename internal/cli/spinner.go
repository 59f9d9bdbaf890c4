package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a status line while a history loads. It only draws when
// animate is set; otherwise it just measures the elapsed time.
type Spinner struct {
	out     io.Writer
	message string
	animate bool
	start   time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
	mu      sync.Mutex
}

// startSpinner starts a spinner on out. It animates only when out is a terminal.
func startSpinner(ctx context.Context, out io.Writer, message string) *Spinner {
	s := newSpinner(ctx, out, message, isTerminal(out))
	s.run()
	return s
}

func newSpinner(ctx context.Context, out io.Writer, message string, animate bool) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     out,
		message: message,
		animate: animate,
		start:   time.Now(),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

func (s *Spinner) run() {
	if !s.animate {
		close(s.stopped)
		return
	}
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				frame := spinnerFrames[i%len(spinnerFrames)]
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
				s.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and clears the line. It is safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(s.cancel)
	<-s.stopped
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}

// StopWithSuccess stops the spinner and reports msg with the elapsed time.
func (s *Spinner) StopWithSuccess(msg string) {
	s.Stop()
	printSuccess("%s (%s)", msg, time.Since(s.start).Round(time.Millisecond))
}
