// Package session holds the client-side state machine of a live match. The remote authority is
// the single writer of match state; the machine only checks local preconditions, emits intents
// and copies what the authority sends back.
package session

import (
	"log/slog"
	"strings"
	"time"

	"github.com/rocketscienceinc/arena-client/internal/clock"
	"github.com/rocketscienceinc/arena-client/internal/entity"
)

const (
	DefaultTurnDuration = 30 * time.Second
	DefaultTickInterval = time.Second
)

type State int

const (
	StateIdle State = iota
	StateQueued
	StateActive
	StateEnded
)

func (that State) String() string {
	switch that {
	case StateIdle:
		return "idle"
	case StateQueued:
		return "queued"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

type UndoState int

const (
	UndoIdle UndoState = iota
	UndoRequestSent
	UndoRequestReceived
)

func (that UndoState) String() string {
	switch that {
	case UndoIdle:
		return "idle"
	case UndoRequestSent:
		return "request_sent"
	case UndoRequestReceived:
		return "request_received"
	default:
		return "unknown"
	}
}

type JoinRequest struct {
	UserID     string
	GameType   entity.GameType
	Mode       entity.Mode
	Difficulty entity.Difficulty
}

// Emitter sends local intents to the authority. Implementations must not block.
type Emitter interface {
	JoinQueue(req JoinRequest) error
	SubmitMove(matchID string, move entity.Move) error
	RequestUndo(matchID string) error
	ResolveUndo(matchID string, accept bool) error
	ClaimTimeout(matchID string) error
	SendChat(matchID string, msg entity.ChatMessage) error
}

type Config struct {
	UserID       string
	DisplayName  string
	TurnDuration time.Duration
	TickInterval time.Duration
}

// Snapshot is a deep copy of the machine state for readers outside the loop.
type Snapshot struct {
	State   State
	Undo    UndoState
	Pending *JoinRequest
	Session *entity.MatchSession

	// false once a ranked countdown has expired
	CountdownRunning bool
}

// Machine is not safe for concurrent use: every method must run on the event loop.
type Machine struct {
	logger    *slog.Logger
	emitter   Emitter
	scheduler clock.Scheduler
	conf      Config

	state   State
	undo    UndoState
	pending *JoinRequest
	session *entity.MatchSession
	lastSeq uint64

	stopCountdown clock.Cancel

	onChange func()
	onNotify func(Notification)
}

func NewMachine(logger *slog.Logger, emitter Emitter, scheduler clock.Scheduler, conf Config) *Machine {
	if conf.TurnDuration <= 0 {
		conf.TurnDuration = DefaultTurnDuration
	}

	if conf.TickInterval <= 0 {
		conf.TickInterval = DefaultTickInterval
	}

	if conf.DisplayName == "" {
		conf.DisplayName = conf.UserID
	}

	return &Machine{
		logger:    logger.With("component", "session"),
		emitter:   emitter,
		scheduler: scheduler,
		conf:      conf,
	}
}

func (that *Machine) OnChange(fn func()) {
	that.onChange = fn
}

func (that *Machine) OnNotify(fn func(Notification)) {
	that.onNotify = fn
}

func (that *Machine) State() State {
	return that.state
}

func (that *Machine) Undo() UndoState {
	return that.undo
}

func (that *Machine) CountdownRunning() bool {
	return that.stopCountdown != nil
}

func (that *Machine) Snapshot() Snapshot {
	snapshot := Snapshot{
		State:            that.state,
		Undo:             that.undo,
		Session:          that.session.Clone(),
		CountdownRunning: that.CountdownRunning(),
	}

	if that.pending != nil {
		pending := *that.pending
		snapshot.Pending = &pending
	}

	return snapshot
}

// JoinMatchmaking asks the authority for a match. Only valid without a session.
func (that *Machine) JoinMatchmaking(gameType entity.GameType, mode entity.Mode, difficulty entity.Difficulty) {
	log := that.logger.With("method", "JoinMatchmaking")

	if that.state != StateIdle {
		log.Debug("ignored, session already exists", "state", that.state)
		return
	}

	req := JoinRequest{
		UserID:     that.conf.UserID,
		GameType:   gameType,
		Mode:       mode,
		Difficulty: difficulty,
	}

	if err := that.emitter.JoinQueue(req); err != nil {
		log.Error("failed to join matchmaking", "error", err)
		that.notify(NotifyError, "could not reach the server: "+err.Error())
		return
	}

	that.pending = &req
	that.state = StateQueued

	log.Info("joined matchmaking", "gameType", gameType, "mode", mode)
	that.changed()
}

// MatchAssigned adopts the authority's initial board and turn verbatim.
func (that *Machine) MatchAssigned(evt MatchAssigned) {
	log := that.logger.With("method", "MatchAssigned", "matchID", evt.MatchID)

	if that.state != StateQueued {
		log.Warn("dropped match assignment outside of queue", "state", that.state)
		return
	}

	// older servers leave the mode out; it is the one we queued for
	if evt.Mode == "" && that.pending != nil {
		evt.Mode = that.pending.Mode
	}

	if err := evt.validate(); err != nil {
		log.Warn("dropped malformed match assignment", "error", err)
		return
	}

	var opponent *entity.Opponent
	if evt.Opponent != nil {
		copied := *evt.Opponent
		opponent = &copied
	}

	that.session = &entity.MatchSession{
		ID:         evt.MatchID,
		GameType:   evt.GameType,
		Mode:       evt.Mode,
		Difficulty: evt.Difficulty,
		Self:       evt.Self,
		Opponent:   opponent,
		Board:      evt.Board.Clone(),
		Turn:       evt.FirstTurn,
		Outcome:    entity.OutcomeNone,
	}
	that.pending = nil
	that.undo = UndoIdle
	that.lastSeq = 0
	that.state = StateActive

	that.restartCountdown()

	log.Info("match started", "gameType", evt.GameType, "mode", evt.Mode, "self", evt.Self.Mark())
	that.notify(NotifyMatchFound, "match found")
	that.changed()
}

// SubmitMove sends a move when it is this client's turn and the cell is free. The turn is not
// flipped here; it changes only when the authority answers.
func (that *Machine) SubmitMove(r, c int) {
	log := that.logger.With("method", "SubmitMove")

	if !that.isLive() {
		log.Debug("ignored, no live match", "state", that.state)
		return
	}

	if !that.session.IsMyTurn() {
		log.Debug("ignored, not my turn")
		return
	}

	if !that.session.Board.IsEmptyAt(r, c) {
		log.Debug("ignored, cell is taken or out of bounds", "r", r, "c", c)
		return
	}

	move := entity.Move{Row: r, Col: c, Player: that.session.Self}
	if err := that.emitter.SubmitMove(that.session.ID, move); err != nil {
		log.Error("failed to submit move", "error", err)
		that.notify(NotifyError, "move was not sent: "+err.Error())
	}
}

// AuthoritativeUpdate replaces the local match state with the authority's.
func (that *Machine) AuthoritativeUpdate(evt GameUpdate) {
	log := that.logger.With("method", "AuthoritativeUpdate")

	if that.state != StateActive {
		log.Warn("dropped game update without active match", "state", that.state)
		return
	}

	if evt.MatchID != "" && evt.MatchID != that.session.ID {
		log.Warn("dropped game update for unknown match", "matchID", evt.MatchID)
		return
	}

	if evt.Sequence != 0 {
		if evt.Sequence <= that.lastSeq {
			log.Warn("dropped stale game update", "seq", evt.Sequence, "lastSeq", that.lastSeq)
			return
		}
	}

	shape, err := that.session.GameType.Shape()
	if err != nil {
		log.Error("session has unknown game type", "error", err)
		return
	}

	if err = evt.validate(shape); err != nil {
		log.Warn("dropped malformed game update", "error", err)
		return
	}

	if evt.Sequence != 0 {
		that.lastSeq = evt.Sequence
	}

	that.session.Board = evt.Board.Clone()
	that.session.Turn = evt.Turn
	that.session.Outcome = evt.Outcome
	that.session.WinningLine = append([]entity.Coord(nil), evt.WinningLine...)
	that.session.LastMove = nil

	if evt.LastMove != nil {
		lastMove := *evt.LastMove
		that.session.LastMove = &lastMove
	}

	// an accepted undo shows up as an ordinary update
	if that.undo == UndoRequestSent {
		that.undo = UndoIdle
	}

	if evt.Outcome.IsTerminal() {
		that.session.Countdown = that.conf.TurnDuration
		that.finish()
		log.Info("match ended", "outcome", evt.Outcome)
		that.notify(NotifyGameOver, evt.Outcome.String())
		that.changed()

		return
	}

	that.restartCountdown()
	that.changed()
}

// RequestUndo asks the opponent to take back the last move. Ranked matches only.
func (that *Machine) RequestUndo() {
	log := that.logger.With("method", "RequestUndo")

	if !that.isLive() || !that.session.Mode.IsRanked() {
		log.Debug("ignored, undo not available", "state", that.state)
		return
	}

	if that.undo != UndoIdle {
		log.Debug("ignored, undo already pending", "undo", that.undo)
		return
	}

	if err := that.emitter.RequestUndo(that.session.ID); err != nil {
		log.Error("failed to request undo", "error", err)
		that.notify(NotifyError, "undo request was not sent: "+err.Error())
		return
	}

	that.undo = UndoRequestSent

	that.notify(NotifyUndoSent, "undo requested, waiting for the opponent")
	that.changed()
}

// UndoRequested records the opponent's request; the user answers through ResolveUndo.
func (that *Machine) UndoRequested() {
	log := that.logger.With("method", "UndoRequested")

	if !that.isLive() {
		log.Warn("dropped undo request without live match", "state", that.state)
		return
	}

	switch that.undo {
	case UndoRequestReceived:
		log.Debug("ignored, request already pending")
		return
	case UndoRequestSent:
		// both sides asked at once; ours stays outstanding and theirs is refused
		if err := that.emitter.ResolveUndo(that.session.ID, false); err != nil {
			log.Error("failed to decline crossing undo request", "error", err)
		}
		return
	}

	that.undo = UndoRequestReceived

	that.notify(NotifyUndoRequested, "opponent asks to take back the last move")
	that.changed()
}

// ResolveUndo answers a pending opponent request.
func (that *Machine) ResolveUndo(accept bool) {
	log := that.logger.With("method", "ResolveUndo")

	if that.session == nil || that.undo != UndoRequestReceived {
		log.Debug("ignored, no pending request", "undo", that.undo)
		return
	}

	if err := that.emitter.ResolveUndo(that.session.ID, accept); err != nil {
		log.Error("failed to resolve undo", "error", err)
	}

	that.undo = UndoIdle

	log.Info("undo resolved", "accepted", accept)
	that.changed()
}

// UndoDeclined closes our request. The board is untouched because nothing was rolled back.
func (that *Machine) UndoDeclined() {
	log := that.logger.With("method", "UndoDeclined")

	if that.session == nil || that.undo != UndoRequestSent {
		log.Warn("dropped undo decline without pending request", "undo", that.undo)
		return
	}

	that.undo = UndoIdle

	that.notify(NotifyUndoDeclined, "opponent declined the undo request")
	that.changed()
}

// Tick counts the turn timer down. At zero the waiting side claims the timeout; a client never
// claims against its own turn.
func (that *Machine) Tick() {
	log := that.logger.With("method", "Tick")

	if !that.isLive() || !that.session.Mode.IsRanked() {
		that.cancelCountdown()
		return
	}

	that.session.Countdown -= that.conf.TickInterval
	if that.session.Countdown > 0 {
		return
	}

	that.session.Countdown = 0
	that.cancelCountdown()

	if that.session.IsMyTurn() {
		log.Info("own turn expired, waiting for the authority")
		that.changed()
		return
	}

	if err := that.emitter.ClaimTimeout(that.session.ID); err != nil {
		log.Error("failed to claim timeout", "error", err)
		that.changed()
		return
	}

	log.Info("claimed opponent timeout", "matchID", that.session.ID)
	that.notify(NotifyTimeoutClaim, "opponent ran out of time")
	that.changed()
}

// Leave drops the session from any state. The channel stays subscribed for the next match.
func (that *Machine) Leave() {
	if that.state == StateIdle {
		return
	}

	that.cancelCountdown()

	if that.session != nil {
		that.logger.Info("left match", "matchID", that.session.ID, "state", that.state)
	}

	that.session = nil
	that.pending = nil
	that.undo = UndoIdle
	that.lastSeq = 0
	that.state = StateIdle

	that.changed()
}

func (that *Machine) SendChat(text string) {
	log := that.logger.With("method", "SendChat")

	text = strings.TrimSpace(text)
	if text == "" || that.session == nil {
		return
	}

	msg := entity.ChatMessage{Sender: that.conf.DisplayName, Message: text}
	if err := that.emitter.SendChat(that.session.ID, msg); err != nil {
		log.Error("failed to send chat", "error", err)
		that.notify(NotifyError, "message was not sent: "+err.Error())
	}
}

func (that *Machine) ChatReceived(msg entity.ChatMessage) {
	if that.session == nil {
		that.logger.Warn("dropped chat without session")
		return
	}

	that.session.Chat = append(that.session.Chat, msg)

	that.notify(NotifyChat, msg.Sender+": "+msg.Message)
	that.changed()
}

func (that *Machine) isLive() bool {
	return that.state == StateActive && that.session != nil && !that.session.IsFinished()
}

func (that *Machine) finish() {
	that.cancelCountdown()
	that.undo = UndoIdle
	that.state = StateEnded
}

func (that *Machine) restartCountdown() {
	that.cancelCountdown()
	that.session.Countdown = that.conf.TurnDuration

	if that.isLive() && that.session.Mode.IsRanked() {
		that.stopCountdown = that.scheduler.Every(that.conf.TickInterval, that.Tick)
	}
}

func (that *Machine) cancelCountdown() {
	if that.stopCountdown == nil {
		return
	}

	that.stopCountdown()
	that.stopCountdown = nil
}

func (that *Machine) changed() {
	if that.onChange != nil {
		that.onChange()
	}
}

func (that *Machine) notify(kind NotificationKind, message string) {
	if that.onNotify != nil {
		that.onNotify(Notification{Kind: kind, Message: message})
	}
}
