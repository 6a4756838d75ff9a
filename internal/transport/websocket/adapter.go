// Package websocket translates between the session machine and the authority's websocket channel.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/arena-client/internal/apperror"
	"github.com/rocketscienceinc/arena-client/internal/entity"
	"github.com/rocketscienceinc/arena-client/internal/session"
)

const (
	DefaultOutboundBuffer = 32

	writeWait = 10 * time.Second
)

var (
	ErrAlreadyRunning    = errors.New("adapter is already serving a connection")
	ErrAlreadySubscribed = errors.New("adapter already has a subscriber")
	ErrNotSubscribed     = errors.New("adapter has no subscriber")
	ErrQueueFull         = errors.New("outbound queue is full")
)

// Inbound receives decoded server events. Calls come from the reader goroutine.
type Inbound interface {
	MatchAssigned(evt session.MatchAssigned)
	GameUpdate(evt session.GameUpdate)
	UndoRequested()
	UndoDeclined()
	ChatReceived(msg entity.ChatMessage)
}

// Adapter serves one connection at a time. Its handler set and its single subscriber are fixed
// before the first connection, so serving a new connection after a reconnect never delivers an
// event twice.
type Adapter struct {
	logger   *slog.Logger
	handlers map[string]func(payload json.RawMessage) error

	bufferSize int

	mu      sync.Mutex
	inbound Inbound
	queue   chan []byte
}

func NewAdapter(logger *slog.Logger, bufferSize int) *Adapter {
	if bufferSize <= 0 {
		bufferSize = DefaultOutboundBuffer
	}

	adapter := &Adapter{
		logger:     logger.With("component", "websocket"),
		handlers:   make(map[string]func(json.RawMessage) error),
		bufferSize: bufferSize,
	}

	adapter.handlers[actionMatchFound] = adapter.handleMatchFound
	adapter.handlers[actionGameUpdate] = adapter.handleGameUpdate
	adapter.handlers[actionUndoRequested] = adapter.handleUndoRequested
	adapter.handlers[actionUndoDeclined] = adapter.handleUndoDeclined
	adapter.handlers[actionReceiveChat] = adapter.handleReceiveChat

	return adapter
}

// Subscribe sets the receiver of inbound events. It can be called once.
func (that *Adapter) Subscribe(inbound Inbound) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.inbound != nil {
		return ErrAlreadySubscribed
	}

	that.inbound = inbound

	return nil
}

// Connected reports whether a connection is being served.
func (that *Adapter) Connected() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.queue != nil
}

// Run serves conn until it fails or ctx is cancelled. The connection is closed on return.
func (that *Adapter) Run(ctx context.Context, conn *websocket.Conn) error {
	log := that.logger.With("method", "Run")

	queue, err := that.attach()
	if err != nil {
		return err
	}
	defer that.detach()

	log.Info("connection established", "remote", conn.RemoteAddr().String())

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return that.readPump(conn)
	})

	group.Go(func() error {
		return that.writePump(groupCtx, conn, queue)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		return conn.Close()
	})

	err = group.Wait()

	if ctx.Err() != nil {
		log.Info("connection closed")
		return ctx.Err() //nolint: wrapcheck // caller compares with context errors
	}

	log.Warn("connection lost", "error", err)

	return fmt.Errorf("connection lost: %w", err)
}

func (that *Adapter) attach() (chan []byte, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.inbound == nil {
		return nil, ErrNotSubscribed
	}

	if that.queue != nil {
		return nil, ErrAlreadyRunning
	}

	that.queue = make(chan []byte, that.bufferSize)

	return that.queue, nil
}

func (that *Adapter) detach() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.queue = nil
}

func (that *Adapter) readPump(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		that.dispatch(data)
	}
}

func (that *Adapter) writePump(ctx context.Context, conn *websocket.Conn, queue <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, closing, time.Now().Add(writeWait))

			return nil
		case data := <-queue:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return fmt.Errorf("failed to set write deadline: %w", err)
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return fmt.Errorf("failed to write message: %w", err)
			}
		}
	}
}

func (that *Adapter) dispatch(data []byte) {
	log := that.logger.With("method", "dispatch")

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn("failed to unmarshal message", "error", err)
		return
	}

	if msg.Version != 0 && msg.Version != ProtocolVersion {
		log.Warn("dropped message with unsupported version", "action", msg.Action, "version", msg.Version)
		return
	}

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Warn("dropped message with unknown action", "action", msg.Action)
		return
	}

	if err := handler(msg.Payload); err != nil {
		log.Warn("dropped malformed payload", "action", msg.Action, "error", err)
	}
}

func (that *Adapter) handleMatchFound(raw json.RawMessage) error {
	var payload matchFoundPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal match: %w", err)
	}

	that.inbound.MatchAssigned(payload.event())

	return nil
}

func (that *Adapter) handleGameUpdate(raw json.RawMessage) error {
	var payload gameUpdatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal game update: %w", err)
	}

	that.inbound.GameUpdate(payload.event())

	return nil
}

func (that *Adapter) handleUndoRequested(json.RawMessage) error {
	that.inbound.UndoRequested()
	return nil
}

func (that *Adapter) handleUndoDeclined(json.RawMessage) error {
	that.inbound.UndoDeclined()
	return nil
}

func (that *Adapter) handleReceiveChat(raw json.RawMessage) error {
	var payload chatPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal chat: %w", err)
	}

	if payload.Message == "" {
		return fmt.Errorf("%w: message", apperror.ErrMissingField)
	}

	that.inbound.ChatReceived(entity.ChatMessage{Sender: payload.Sender, Message: payload.Message})

	return nil
}

func (that *Adapter) JoinQueue(req session.JoinRequest) error {
	return that.emit(actionJoinMatchmaking, joinPayload{
		UserID:     req.UserID,
		Type:       req.GameType,
		Mode:       req.Mode,
		Difficulty: req.Difficulty,
	})
}

func (that *Adapter) SubmitMove(matchID string, move entity.Move) error {
	return that.emit(actionMakeMove, movePayload{RoomID: matchID, Row: move.Row, Col: move.Col, Player: move.Player})
}

func (that *Adapter) RequestUndo(matchID string) error {
	return that.emit(actionRequestUndo, roomPayload{RoomID: matchID})
}

func (that *Adapter) ResolveUndo(matchID string, accept bool) error {
	return that.emit(actionResolveUndo, resolveUndoPayload{RoomID: matchID, Accept: accept})
}

func (that *Adapter) ClaimTimeout(matchID string) error {
	return that.emit(actionClaimTimeout, roomPayload{RoomID: matchID})
}

func (that *Adapter) SendChat(matchID string, msg entity.ChatMessage) error {
	return that.emit(actionSendChat, chatPayload{RoomID: matchID, Sender: msg.Sender, Message: msg.Message})
}

// emit never blocks: without a connection or with a full queue the message is refused.
func (that *Adapter) emit(action string, payload any) error {
	data, err := encode(action, payload)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.queue == nil {
		return apperror.ErrNoConnection
	}

	select {
	case that.queue <- data:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrQueueFull, action)
	}
}
