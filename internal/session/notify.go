package session

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
	"github.com/DoyleJ11/hide-and-seek/internal/view"
)

const (
	fanoutLimit   = 8
	abortDeadline = 15 * time.Second
)

// abort replaces every surface with a terminal notice. Each delivery is
// attempted on its own; a failed one never stops the others.
func (s *Session) abort(ctx context.Context) {
	s.setState(engine.Aborted{From: s.phase()})

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortDeadline)
	defer cancel()

	g := s.fanout()
	if s.announcement != "" {
		g.Go(func() error {
			return s.quiet("abort announcement", s.board.Edit(ctx, s.announcement, view.AnnouncementAborted()), "")
		})
	}
	if s.control != "" {
		host := s.contacts[s.host.ID]
		g.Go(func() error {
			return s.quiet("abort host controls", host.reply.Edit(ctx, s.control, view.Aborted()), s.host.ID)
		})
	}
	// players from a finished round already saw its summary
	for _, p := range s.roster.Players() {
		c := s.contacts[p.Identity.ID]
		if p.Host || c == nil || c.reply == nil || c.summarized {
			continue
		}
		g.Go(func() error {
			if c.notice == "" {
				_, err := c.reply.Notify(ctx, view.Aborted())
				return s.quiet("abort notice", err, p.Identity.ID)
			}
			return s.quiet("abort notice", c.reply.Edit(ctx, c.notice, view.Aborted()), p.Identity.ID)
		})
	}
	_ = g.Wait()
}

func (s *Session) fanout() *errgroup.Group {
	g := new(errgroup.Group)
	g.SetLimit(fanoutLimit)
	return g
}

// quiet logs a failed delivery and swallows it.
func (s *Session) quiet(what string, err error, player string) error {
	if err == nil {
		return nil
	}
	fields := []zap.Field{zap.String("delivery", what), zap.Error(err)}
	if player != "" {
		fields = append(fields, zap.String("player", player))
	}
	s.log.Debug("delivery failed", fields...)
	return nil
}

func (s *Session) reply(ctx context.Context, r Responder, text string) {
	if r == nil {
		return
	}
	_, err := r.Notify(ctx, view.Text(text))
	s.quiet("reply", err, "")
}

// refresh redraws the announcement for the current phase.
func (s *Session) refresh(ctx context.Context) {
	if s.announcement == "" {
		return
	}
	s.quiet("refresh announcement", s.board.Edit(ctx, s.announcement, view.Announcement(s.boardView())), "")
}

func (s *Session) editControl(ctx context.Context, p view.Payload) {
	if s.control == "" {
		return
	}
	s.quiet("host controls", s.contacts[s.host.ID].reply.Edit(ctx, s.control, p), s.host.ID)
}

func (s *Session) deleteNotice(ctx context.Context, id *MessageID) {
	if *id == "" {
		return
	}
	s.quiet("delete notice", s.board.Delete(ctx, *id), "")
	*id = ""
}
