package session

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/arena-client/internal/entity"
)

const defaultLoopBuffer = 64

// Loop runs posted functions one at a time. Network events, timer ticks and user commands all
// go through it, so the machine and the replay player never see concurrent calls.
type Loop struct {
	logger *slog.Logger
	events chan func()
	done   chan struct{}
}

func NewLoop(logger *slog.Logger, buffer int) *Loop {
	if buffer <= 0 {
		buffer = defaultLoopBuffer
	}

	return &Loop{
		logger: logger.With("component", "loop"),
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
}

// Post queues fn. After Run has returned, fn is dropped.
func (that *Loop) Post(fn func()) {
	select {
	case that.events <- fn:
	case <-that.done:
	}
}

// Run executes posted functions until ctx is cancelled.
func (that *Loop) Run(ctx context.Context) error {
	defer close(that.done)

	that.logger.Debug("event loop started")

	for {
		select {
		case <-ctx.Done():
			that.logger.Debug("event loop stopped")
			return nil
		case fn := <-that.events:
			fn()
		}
	}
}

// Dispatcher hands inbound server events to the machine on the loop.
type Dispatcher struct {
	loop    *Loop
	machine *Machine
}

func NewDispatcher(loop *Loop, machine *Machine) *Dispatcher {
	return &Dispatcher{loop: loop, machine: machine}
}

func (that *Dispatcher) MatchAssigned(evt MatchAssigned) {
	that.loop.Post(func() { that.machine.MatchAssigned(evt) })
}

func (that *Dispatcher) GameUpdate(evt GameUpdate) {
	that.loop.Post(func() { that.machine.AuthoritativeUpdate(evt) })
}

func (that *Dispatcher) UndoRequested() {
	that.loop.Post(that.machine.UndoRequested)
}

func (that *Dispatcher) UndoDeclined() {
	that.loop.Post(that.machine.UndoDeclined)
}

func (that *Dispatcher) ChatReceived(msg entity.ChatMessage) {
	that.loop.Post(func() { that.machine.ChatReceived(msg) })
}
