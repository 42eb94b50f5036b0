package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// Endpoint wraps one websocket connection behind an outbox channel and a
// writer goroutine. Send never blocks; payloads to a full or closed
// endpoint are dropped, which keeps a dead peer from stalling a broadcast.
type Endpoint struct {
	id     string
	conn   *websocket.Conn
	outbox chan []byte
	done   chan struct{}
	once   sync.Once
	log    *zap.Logger
}

func NewEndpoint(ctx context.Context, conn *websocket.Conn, log *zap.Logger) *Endpoint {
	e := &Endpoint{
		id:     uuid.NewString(),
		conn:   conn,
		outbox: make(chan []byte, 16),
		done:   make(chan struct{}),
		log:    log,
	}
	go e.writeLoop(ctx)
	return e
}

func (e *Endpoint) ID() string { return e.id }

func (e *Endpoint) Send(payload []byte) {
	select {
	case e.outbox <- payload:
	case <-e.done:
	default:
		e.log.Warn("endpoint outbox full, dropping payload", zap.String("endpoint", e.id))
	}
}

// Close stops the writer. Idempotent; the caller still owns the websocket
// close handshake.
func (e *Endpoint) Close() {
	e.once.Do(func() { close(e.done) })
}

func (e *Endpoint) writeLoop(ctx context.Context) {
	for {
		select {
		case <-e.done:
			return
		case <-ctx.Done():
			return
		case payload := <-e.outbox:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := e.conn.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				// Transport failure is per-recipient; just stop writing.
				e.Close()
				return
			}
		}
	}
}
