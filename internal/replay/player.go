package replay

import (
	"log/slog"
	"time"

	"github.com/rocketscienceinc/arena-client/internal/clock"
	"github.com/rocketscienceinc/arena-client/internal/entity"
)

const DefaultAutoplayInterval = time.Second

// Player steps through a Subject. The board is rebuilt from scratch on every cursor change.
// Methods are not safe for concurrent use; call them from the event loop.
type Player struct {
	logger    *slog.Logger
	scheduler clock.Scheduler
	interval  time.Duration

	subject *Subject
	cursor  int
	board   *entity.Board

	stopAutoplay clock.Cancel
	onChange     func()
}

func NewPlayer(logger *slog.Logger, scheduler clock.Scheduler, interval time.Duration, subject *Subject) *Player {
	if interval <= 0 {
		interval = DefaultAutoplayInterval
	}

	player := &Player{
		logger:    logger.With("component", "replay", "matchID", subject.MatchID()),
		scheduler: scheduler,
		interval:  interval,
		subject:   subject,
	}
	player.board = subject.BoardAt(0)

	if err := subject.Malformed(); err != nil {
		player.logger.Warn("move log is malformed, skipping bad moves", "error", err)
	}

	return player
}

// OnChange registers a callback run after every cursor change.
func (that *Player) OnChange(fn func()) {
	that.onChange = fn
}

func (that *Player) Subject() *Subject {
	return that.subject
}

func (that *Player) Cursor() int {
	return that.cursor
}

func (that *Player) Len() int {
	return that.subject.Len()
}

func (that *Player) AtEnd() bool {
	return that.cursor >= that.subject.Len()
}

// Board returns a copy of the board at the cursor.
func (that *Player) Board() *entity.Board {
	return that.board.Clone()
}

// LastMove is the move that produced the current board, nil at step 0.
func (that *Player) LastMove() *entity.Coord {
	if that.cursor == 0 {
		return nil
	}

	coord := that.subject.moves[that.cursor-1].Coord()

	return &coord
}

func (that *Player) Seek(step int) {
	that.setCursor(Advance(step, 0, that.subject.Len()))
}

func (that *Player) Step(delta int) {
	that.setCursor(Advance(that.cursor, delta, that.subject.Len()))
}

func (that *Player) Rewind() {
	that.Seek(0)
}

func (that *Player) End() {
	that.Seek(that.subject.Len())
}

func (that *Player) Playing() bool {
	return that.stopAutoplay != nil
}

// Play starts autoplay; it does nothing at the end of the log or when already playing.
func (that *Player) Play() {
	if that.Playing() || that.AtEnd() {
		return
	}

	that.stopAutoplay = that.scheduler.Every(that.interval, that.tick)
	that.logger.Debug("autoplay started", "cursor", that.cursor)
}

func (that *Player) Pause() {
	if that.stopAutoplay == nil {
		return
	}

	that.stopAutoplay()
	that.stopAutoplay = nil
	that.logger.Debug("autoplay stopped", "cursor", that.cursor)
}

func (that *Player) Toggle() {
	if that.Playing() {
		that.Pause()
		return
	}

	that.Play()
}

// Close stops autoplay; the player must not be used afterwards.
func (that *Player) Close() {
	that.Pause()
	that.onChange = nil
}

func (that *Player) tick() {
	if that.AtEnd() {
		that.Pause()
		return
	}

	that.Step(1)

	if that.AtEnd() {
		that.Pause()
	}
}

func (that *Player) setCursor(cursor int) {
	if cursor == that.cursor {
		return
	}

	that.cursor = cursor
	that.board = that.subject.BoardAt(cursor)

	if that.onChange != nil {
		that.onChange()
	}
}
