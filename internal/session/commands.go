package session

import (
	"context"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/shared/types"
	"go.uber.org/zap"
)

// OnMove sends a move command
func (s *Session) OnMove(windowID string, x, y int) {
	s.enqueueGeometry("move", windowID, func(ctx context.Context) error {
		return s.commands.MoveWindow(ctx, s.desktopID, windowID, x, y)
	})
}

// OnResize sends a resize command
func (s *Session) OnResize(windowID string, width, height int) {
	s.enqueueGeometry("resize", windowID, func(ctx context.Context) error {
		return s.commands.ResizeWindow(ctx, s.desktopID, windowID, width, height)
	})
}

// OnFocus sends a focus command
func (s *Session) OnFocus(windowID string) {
	s.enqueue("focus", windowID, func(ctx context.Context) error {
		return s.commands.FocusWindow(ctx, s.desktopID, windowID)
	})
}

// OnClose sends a close command
func (s *Session) OnClose(windowID string) {
	s.enqueue("close", windowID, func(ctx context.Context) error {
		return s.commands.CloseWindow(ctx, s.desktopID, windowID)
	})
}

// OnMinimize sends a minimize command
func (s *Session) OnMinimize(windowID string) {
	s.enqueue("minimize", windowID, func(ctx context.Context) error {
		return s.commands.MinimizeWindow(ctx, s.desktopID, windowID)
	})
}

// OnMaximize asks the server to fill the current viewport
func (s *Session) OnMaximize(windowID string) {
	vp := s.Viewport()
	area := &types.Bounds{Width: vp.Width, Height: vp.Height}
	s.enqueue("maximize", windowID, func(ctx context.Context) error {
		return s.commands.MaximizeWindow(ctx, s.desktopID, windowID, area)
	})
}

// OnRestore sends a restore command
func (s *Session) OnRestore(windowID string) {
	s.enqueue("restore", windowID, func(ctx context.Context) error {
		return s.commands.RestoreWindow(ctx, s.desktopID, windowID)
	})
}

// enqueue keeps commands in gesture order; the server sees them one at a time
func (s *Session) enqueue(op, windowID string, run func(ctx context.Context) error) {
	s.push(command{op: op, windowID: windowID, run: run})
}

// enqueueGeometry queues a move or resize that supersedes a still-queued one
func (s *Session) enqueueGeometry(op, windowID string, run func(ctx context.Context) error) {
	s.push(command{op: op, windowID: windowID, latestWins: true, run: run})
}

func (s *Session) push(cmd command) {
	if s.commands == nil {
		s.log.Debug("no command channel, dropping intent", zap.String("op", cmd.op), zap.String("window_id", cmd.windowID))
		return
	}

	evicted, dropped := s.queue.push(cmd)
	if !dropped {
		return
	}
	s.log.Warn("command dropped", zap.String("op", evicted.op), zap.String("window_id", evicted.windowID))
	s.notify(Notice{Source: NoticeCommand, Op: evicted.op, WindowID: evicted.windowID, Message: ErrQueueFull.Error()})
}

func (s *Session) drainCommands(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		cmd, ok := s.queue.pop()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-s.queue.ready:
			}
			continue
		}
		s.execute(ctx, cmd)
	}
}

func (s *Session) execute(ctx context.Context, cmd command) {
	err := cmd.run(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}
	s.log.Warn("command failed",
		zap.String("op", cmd.op),
		zap.String("window_id", cmd.windowID),
		zap.Error(err),
	)
	s.notify(Notice{Source: NoticeCommand, Op: cmd.op, WindowID: cmd.windowID, Message: err.Error()})
}
