// Package scan implements the QR capture loop: acquire a camera, poll its
// frames, decode them and hand the first payload found to a submit step.
package scan

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/client/scheduler"
	"github.com/dmitrijs2005/qrattend/internal/logging"
)

// Phase is the position of a Loop in its lifecycle.
type Phase int

const (
	Idle Phase = iota
	Requesting
	Streaming
	Found
	Stopped
	Failed
)

func (p Phase) String() string {
	return [...]string{"idle", "requesting", "streaming", "found", "stopped", "failed"}[p]
}

// SubmitFunc receives the decoded payload. The loop calls it at most once.
type SubmitFunc func(ctx context.Context, payload string)

// DefaultFrameInterval approximates one display frame.
const DefaultFrameInterval = time.Second / 60

// Loop is single-use: Start it once, then Wait or Stop.
type Loop struct {
	camera   Camera
	decoder  Decoder
	submit   SubmitFunc
	interval time.Duration
	log      logging.Logger

	mu      sync.Mutex
	phase   Phase
	stream  Stream
	task    scheduler.Task
	payload string
	err     error

	release  sync.Once
	finished sync.Once
	done     chan struct{}
}

type Option func(*Loop)

func WithFrameInterval(d time.Duration) Option {
	return func(l *Loop) { l.interval = d }
}

func WithLogger(log logging.Logger) Option {
	return func(l *Loop) { l.log = log }
}

func NewLoop(camera Camera, decoder Decoder, submit SubmitFunc, opts ...Option) *Loop {
	l := &Loop{
		camera:   camera,
		decoder:  decoder,
		submit:   submit,
		interval: DefaultFrameInterval,
		log:      logging.Nop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Phase returns the current phase.
func (l *Loop) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

// Start acquires the camera and begins polling. Acquisition failures end the
// loop in Failed with a *DeviceError. Cancelling ctx stops the loop.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.phase != Idle {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	l.phase = Requesting
	l.mu.Unlock()

	stream, err := l.camera.Open(ctx)
	if err != nil {
		de := deviceError(err)
		l.mu.Lock()
		if l.phase == Requesting {
			l.phase = Failed
			l.err = de
		}
		l.mu.Unlock()
		l.finish()
		l.log.Warn(ctx, "camera acquisition failed", "cause", de.Cause.String(), "err", err)
		return de
	}

	l.mu.Lock()
	if l.phase != Requesting {
		// stopped while the camera was being acquired
		l.mu.Unlock()
		_ = stream.Close()
		return ErrStopped
	}
	l.phase = Streaming
	l.stream = stream
	l.task = scheduler.NewTask()
	task := l.task
	l.mu.Unlock()

	go l.poll(ctx, stream, task)
	return nil
}

func (l *Loop) poll(ctx context.Context, stream Stream, task scheduler.Task) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-task.Done():
			return
		case <-ctx.Done():
			l.Stop()
			return
		case <-timer.C:
		}

		if done := l.step(ctx, stream); done {
			return
		}
		timer.Reset(l.interval)
	}
}

// step reads and decodes one frame and reports whether polling is over.
func (l *Loop) step(ctx context.Context, stream Stream) bool {
	img, err := stream.Frame(ctx)
	switch {
	case errors.Is(err, ErrFrameNotReady):
		return false
	case errors.Is(err, io.EOF):
		l.end(Stopped, ErrStreamEnded)
		return true
	case err != nil:
		de := deviceError(err)
		l.log.Warn(ctx, "camera stream failed", "cause", de.Cause.String(), "err", err)
		l.end(Failed, de)
		return true
	}

	payload, err := l.decoder.Decode(img)
	if err != nil {
		return false
	}
	l.found(ctx, payload)
	return true
}

// found moves Streaming to Found and submits payload. Any later call, or a
// call after Stop, is ignored.
func (l *Loop) found(ctx context.Context, payload string) {
	l.mu.Lock()
	if l.phase != Streaming {
		l.mu.Unlock()
		return
	}
	l.phase = Found
	l.payload = payload
	l.task.Cancel()
	l.mu.Unlock()

	l.releaseStream()
	l.log.Debug(ctx, "qr code found")
	if l.submit != nil {
		l.submit(ctx, payload)
	}
	l.finish()
}

func (l *Loop) end(phase Phase, err error) {
	l.mu.Lock()
	if l.phase != Streaming {
		l.mu.Unlock()
		return
	}
	l.phase = phase
	l.err = err
	l.task.Cancel()
	l.mu.Unlock()

	l.releaseStream()
	l.finish()
}

// Stop cancels polling and releases the camera. It is a no-op once the loop
// has finished.
func (l *Loop) Stop() {
	l.mu.Lock()
	switch l.phase {
	case Idle, Requesting:
		l.phase = Stopped
		l.err = ErrStopped
		l.mu.Unlock()
		l.finish()
		return
	case Streaming:
		l.phase = Stopped
		l.err = ErrStopped
		l.task.Cancel()
		l.mu.Unlock()
		l.releaseStream()
		l.finish()
		return
	default:
		l.mu.Unlock()
	}
}

// Wait blocks until the loop finishes and returns the payload, or the error
// that ended it. A cancelled ctx only ends the wait, unless a payload was
// already found: then Wait lets the submit step complete.
func (l *Loop) Wait(ctx context.Context) (string, error) {
	select {
	case <-l.done:
	case <-ctx.Done():
		if l.Phase() != Found {
			return "", ctx.Err()
		}
		<-l.done
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == Found {
		return l.payload, nil
	}
	return "", l.err
}

// Done is closed when the loop has finished.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) releaseStream() {
	l.release.Do(func() {
		l.mu.Lock()
		s := l.stream
		l.mu.Unlock()
		if s != nil {
			_ = s.Close()
		}
	})
}

func (l *Loop) finish() {
	l.finished.Do(func() { close(l.done) })
}
