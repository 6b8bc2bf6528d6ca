package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/edgard/helpdeskbot/internal/config"
)

type fakeServer struct {
	startErr error
	stopped  chan struct{}
}

func newFakeServer(startErr error) *fakeServer {
	return &fakeServer{startErr: startErr, stopped: make(chan struct{})}
}

func (f *fakeServer) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	return nil
}

func (f *fakeServer) Shutdown(context.Context) error {
	select {
	case <-f.stopped:
	default:
		close(f.stopped)
	}
	return nil
}

func newTestBot(t *testing.T, srv Server) *Bot {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewScheduler(log, &config.SchedulerConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewBot(log, srv, s, nil)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(nil)
	b := newTestBot(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	select {
	case <-srv.stopped:
	default:
		t.Error("server was not shut down")
	}
}

func TestRunReturnsServerError(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(errors.New("address already in use"))
	b := newTestBot(t, srv)

	done := make(chan error, 1)
	go func() { done <- b.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Run() error = nil, want server failure")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after server failure")
	}
}
