// Package events publishes session outcomes to a websocket hub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"parlo/internal/assistant"
)

const (
	Shard       = "parlo"
	KindSession = "session"
)

type Message struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Kind    string   `json:"kind"`
	Content string   `json:"content"`
	Session *Session `json:"session,omitempty"`
}

type Session struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Status     string    `json:"status"`
	Route      string    `json:"route"`
	Transcript string    `json:"transcript,omitempty"`
	Reply      string    `json:"reply,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Bus keeps one connection to the hub, dialled on first use and redialled
// once when a write fails.
type Bus struct {
	url    string
	dialer *ws.Dialer

	mu   sync.Mutex
	conn *ws.Conn
}

func NewBus(hubURL string) (*Bus, error) {
	u, err := url.Parse(hubURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("events: unsupported scheme %q", u.Scheme)
	}

	return &Bus{
		url:    u.String(),
		dialer: &ws.Dialer{HandshakeTimeout: 5 * time.Second},
	}, nil
}

func (b *Bus) Publish(ctx context.Context, out assistant.Outcome) error {
	data, err := json.Marshal(messageFor(out))
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for attempt := 0; attempt < 2; attempt++ {
		if b.conn == nil {
			conn, _, err := b.dialer.DialContext(ctx, b.url, nil)
			if err != nil {
				return fmt.Errorf("dial hub: %w", err)
			}
			log.Debug("Connected to hub", "url", b.url)
			b.conn = conn
		}

		if dl, ok := ctx.Deadline(); ok {
			b.conn.SetWriteDeadline(dl)
		}
		err = b.conn.WriteMessage(ws.TextMessage, data)
		if err == nil {
			return nil
		}

		log.Debug("Hub write failed", "err", err, "closed", isClosed(err))
		b.conn.Close()
		b.conn = nil
	}
	return fmt.Errorf("publish: %w", err)
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return nil
	}
	msg := ws.FormatCloseMessage(ws.CloseNormalClosure, "")
	b.conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(time.Second))
	err := b.conn.Close()
	b.conn = nil
	return err
}

func messageFor(out assistant.Outcome) Message {
	s := &Session{
		ID:         out.ID,
		StartedAt:  out.StartedAt,
		DurationMs: out.Duration.Milliseconds(),
		Status:     out.Status(),
		Route:      out.Route.String(),
		Transcript: out.Transcript,
		Reply:      out.Reply,
	}
	if out.Err != nil {
		s.Error = out.Err.Error()
	}

	content := out.Reply
	if content == "" {
		content = out.Transcript
	}
	return Message{From: Shard, To: "*", Kind: KindSession, Content: content, Session: s}
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
