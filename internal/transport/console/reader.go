package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
)

type Handler interface {
	HandleCommand(cmd Command)
	HandleInputError(err error)
}

type Reader struct {
	logger  *slog.Logger
	handler Handler
}

func NewReader(logger *slog.Logger, handler Handler) *Reader {
	return &Reader{
		logger:  logger.With("component", "console"),
		handler: handler,
	}
}

// Run feeds parsed lines to the handler until input ends, quit is typed or ctx is cancelled.
// The blocking read continues in the background after cancellation until the input is closed.
func (that *Reader) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	failed := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			failed <- fmt.Errorf("failed to read input: %w", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-failed:
					return err
				default:
					that.logger.Debug("input closed")
					return nil
				}
			}

			cmd, err := Parse(line)
			if err != nil {
				that.handler.HandleInputError(err)
				continue
			}

			that.handler.HandleCommand(cmd)

			if cmd.Action == ActionQuit {
				return nil
			}
		}
	}
}
