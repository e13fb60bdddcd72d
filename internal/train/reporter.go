package train

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/born-ml/micrograd/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DialTimeout bounds how long DialSocketIO waits for the connect event.
const DialTimeout = 15 * time.Second

// Reporter receives interval progress from a Trainer.
type Reporter interface {
	Report(ctx context.Context, p Progress) error
	Close() error
}

// LogReporter writes progress to the context logger.
type LogReporter struct{}

// NewLogReporter creates a LogReporter.
func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

// Report logs p at info level.
func (r *LogReporter) Report(ctx context.Context, p Progress) error {
	ctxlog.FromContext(ctx).Info("Training progress.",
		"run_id", p.RunID.String(),
		"iteration", p.Iteration,
		"iterations", p.Iterations,
		"loss", p.Loss,
		"elapsed", p.Elapsed,
	)
	return nil
}

// Close is a no-op.
func (r *LogReporter) Close() error {
	return nil
}

// SocketIOReporter emits progress events to a socket.io server.
type SocketIOReporter struct {
	client *socket.Socket
	event  string
}

// DialSocketIO connects to rawURL and returns a reporter emitting event on
// namespace. It blocks until the connection succeeds, fails, ctx is done or
// DialTimeout elapses.
func DialSocketIO(ctx context.Context, rawURL, namespace, event string) (*SocketIOReporter, error) {
	if event == "" {
		return nil, errors.New("socket.io reporter: empty event name")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("socket.io reporter: URL %q needs a scheme and host", rawURL)
	}
	if namespace == "" {
		namespace = "/"
	}

	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", rawURL)

	opts := socket.DefaultOptions()
	opts.SetPath(parsed.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)

	manager := socket.NewManager(fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host), opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected.", "sid", io.Id())
		notify(connected, nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error: %v", errs)
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		notify(connected, err)
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIOReporter{client: io, event: event}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("socket.io connection: %w", ctx.Err())
	case <-time.After(DialTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", DialTimeout)
	}
}

// notify delivers the first connection outcome and drops later ones.
func notify(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// Report emits p as a single map payload. Delivery is fire-and-forget.
func (r *SocketIOReporter) Report(_ context.Context, p Progress) error {
	r.client.Emit(r.event, p.Map())
	return nil
}

// Close disconnects the client.
func (r *SocketIOReporter) Close() error {
	r.client.Disconnect()
	return nil
}
