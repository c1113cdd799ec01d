package docsession

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// cursorRate throttles outbound cursor publishes to animation-frame
// granularity. Intermediate positions are dropped, never queued: the
// current position always replaces, it does not append.
var cursorRate = rate.Every(16 * time.Millisecond)

var reconnectBackoff = time.Second

// PresenceAdapter maps local cursor motion onto the presence channel and
// remote participants' channel state into a renderable list. On channel
// failure it reconnects automatically and republishes the current position;
// updates generated while disconnected are not buffered.
type PresenceAdapter struct {
	channel PresenceChannel
	logger  *slog.Logger
	limiter *rate.Limiter

	mu           sync.Mutex
	participants map[string]RemoteParticipant
	lastCursor   *Cursor

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPresenceAdapter creates an adapter over an unconnected channel.
func NewPresenceAdapter(channel PresenceChannel, logger *slog.Logger) *PresenceAdapter {
	return &PresenceAdapter{
		channel:      channel,
		logger:       logger,
		limiter:      rate.NewLimiter(cursorRate, 1),
		participants: make(map[string]RemoteParticipant),
		closed:       make(chan struct{}),
	}
}

// Start connects the channel and begins consuming remote events until
// Close is called or the context is cancelled.
func (p *PresenceAdapter) Start(ctx context.Context) error {
	if err := p.channel.Connect(ctx); err != nil {
		return err
	}
	go p.run(ctx)
	return nil
}

// PublishCursor broadcasts the local cursor position. A nil cursor tells
// other participants to stop rendering ours, and bypasses the throttle
// since it is a state change rather than movement.
func (p *PresenceAdapter) PublishCursor(cursor *Cursor) error {
	p.mu.Lock()
	p.lastCursor = cursor
	p.mu.Unlock()

	if cursor != nil && !p.limiter.Allow() {
		// Dropped, not queued; the next allowed publish carries the
		// then-current position.
		return nil
	}

	return p.channel.Send(PresenceEvent{Type: "cursor", Cursor: cursor})
}

// Participants returns every remote participant, pointing or not.
func (p *PresenceAdapter) Participants() []RemoteParticipant {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]RemoteParticipant, 0, len(p.participants))
	for _, participant := range p.participants {
		out = append(out, participant)
	}
	return out
}

// Cursors returns only the participants with a cursor to render. A
// participant whose record carries no cursor is suppressed, not shown at a
// stale last-known position.
func (p *PresenceAdapter) Cursors() []RemoteParticipant {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]RemoteParticipant, 0, len(p.participants))
	for _, participant := range p.participants {
		if participant.Cursor != nil {
			out = append(out, participant)
		}
	}
	return out
}

// Close stops the adapter and closes the channel.
func (p *PresenceAdapter) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return p.channel.Close()
}

func (p *PresenceAdapter) run(ctx context.Context) {
	for {
		ev, err := p.channel.Receive()
		if err != nil {
			select {
			case <-p.closed:
				return
			case <-ctx.Done():
				return
			default:
			}

			p.logger.Warn("presence channel dropped, reconnecting", "error", err)
			if !p.reconnect(ctx) {
				return
			}
			continue
		}

		p.apply(ev)
	}
}

// reconnect re-establishes the channel, then publishes the current cursor
// fresh. Remote state is cleared first; the server sends a new roster on
// join, and anything older is stale.
func (p *PresenceAdapter) reconnect(ctx context.Context) bool {
	for {
		select {
		case <-p.closed:
			return false
		case <-ctx.Done():
			return false
		case <-time.After(reconnectBackoff):
		}

		if err := p.channel.Connect(ctx); err != nil {
			p.logger.Warn("presence reconnect failed", "error", err)
			continue
		}

		p.mu.Lock()
		p.participants = make(map[string]RemoteParticipant)
		cursor := p.lastCursor
		p.mu.Unlock()

		if err := p.channel.Send(PresenceEvent{Type: "cursor", Cursor: cursor}); err != nil {
			p.logger.Warn("presence republish failed", "error", err)
			continue
		}

		p.logger.Info("presence channel reconnected")
		return true
	}
}

func (p *PresenceAdapter) apply(ev *PresenceEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Type {
	case "roster":
		p.participants = make(map[string]RemoteParticipant, len(ev.Roster))
		for _, participant := range ev.Roster {
			p.participants[participant.UserID] = participant
		}
	case "join":
		p.participants[ev.UserID] = RemoteParticipant{
			UserID:      ev.UserID,
			DisplayName: ev.DisplayName,
		}
	case "leave":
		delete(p.participants, ev.UserID)
	case "cursor":
		participant, ok := p.participants[ev.UserID]
		if !ok {
			participant = RemoteParticipant{UserID: ev.UserID, DisplayName: ev.DisplayName}
		}
		participant.Cursor = ev.Cursor
		p.participants[ev.UserID] = participant
	}
}
