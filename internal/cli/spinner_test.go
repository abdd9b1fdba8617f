package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestSpinnerSilentOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	got, err := withSpinner(context.Background(), &buf, "Fetching", func() (int, error) {
		time.Sleep(2 * spinnerInterval)
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Errorf("withSpinner = %d, %v; want 42, nil", got, err)
	}
	if buf.Len() != 0 {
		t.Errorf("spinner wrote %q to a non-terminal", buf.String())
	}
}

func TestSpinnerPassesErrors(t *testing.T) {
	want := errors.New("boom")
	_, err := withSpinner(context.Background(), &bytes.Buffer{}, "Fetching", func() (string, error) {
		return "", want
	})
	if !errors.Is(err, want) {
		t.Errorf("error = %v, want %v", err, want)
	}
}

func TestSpinnerAnimates(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(&buf, "Rendering")
	s.animate = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.start(ctx)
	time.Sleep(3 * spinnerInterval)
	s.Stop()
	s.Stop()

	if !bytes.Contains(buf.Bytes(), []byte("Rendering")) {
		t.Errorf("output %q should contain the message", buf.String())
	}
}

func TestSpinnerStopsWithContext(t *testing.T) {
	s := newSpinner(&bytes.Buffer{}, "Waiting")
	s.animate = true
	ctx, cancel := context.WithCancel(context.Background())
	s.start(ctx)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after cancel")
	}
	s.Stop()
}
