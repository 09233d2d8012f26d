package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
	"github.com/DoyleJ11/hide-and-seek/internal/view"
)

var errFinished = errors.New("host declined to play again")

// Windows bounds every wait on the host or the participants.
type Windows struct {
	Join    time.Duration
	Pick    time.Duration
	Confirm time.Duration
	Replay  time.Duration
}

func DefaultWindows() Windows {
	return Windows{
		Join:    10 * time.Minute,
		Pick:    10 * time.Minute,
		Confirm: 10 * time.Minute,
		Replay:  1 * time.Minute,
	}
}

type Config struct {
	// Code is generated when empty.
	Code      string
	Mode      engine.Mode
	Capacity  int
	Host      engine.Identity
	HostReply Responder
	Board     Broadcaster
	Prod      bool
	Windows   Windows
	Clock     Clock
	Random    engine.RandomSource
	Logger    *zap.Logger
}

type contact struct {
	reply  Responder
	notice MessageID
	// summarized is set once the player has seen a finish summary.
	summarized bool
}

// View is a point-in-time copy of the session for inspection.
type View struct {
	Code      string
	Mode      engine.Mode
	Capacity  int
	State     engine.State
	EnteredAt time.Time
	Players   []engine.Player
	Replayed  bool
	Rounds    int
}

// Result describes how a session ended.
type Result struct {
	Code      string
	Mode      engine.Mode
	Outcome   engine.Phase
	AbortedIn engine.Phase
	Rounds    int
	Replayed  bool
	Players   []engine.Player
	CreatedAt time.Time
	EndedAt   time.Time
}

type Session struct {
	code      string
	mode      engine.Mode
	durations engine.Durations
	windows   Windows
	roster    *engine.Roster
	host      engine.Identity
	contacts  map[string]*contact
	board     Broadcaster
	inbox     Collector
	clock     Clock
	rand      engine.RandomSource
	log       *zap.Logger

	state     engine.State
	enteredAt time.Time
	createdAt time.Time
	replayed  bool
	rounds    int

	announcement MessageID
	control      MessageID
	startNotice  MessageID
	seekNotice   MessageID
}

func New(cfg Config) (*Session, error) {
	mode, err := engine.ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	roster, err := engine.NewRoster(cfg.Host, cfg.Capacity)
	if err != nil {
		return nil, err
	}
	if cfg.HostReply == nil || cfg.Board == nil {
		return nil, ErrUnreachable
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.Random == nil {
		cfg.Random = engine.CryptoSource{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Windows == (Windows{}) {
		cfg.Windows = DefaultWindows()
	}
	if cfg.Code == "" {
		cfg.Code = engine.NewCode(cfg.Random)
	}

	return &Session{
		code:      cfg.Code,
		mode:      mode,
		durations: engine.DurationsFor(mode, cfg.Prod),
		windows:   cfg.Windows,
		roster:    roster,
		host:      cfg.Host,
		contacts:  map[string]*contact{cfg.Host.ID: {reply: cfg.HostReply}},
		board:     cfg.Board,
		inbox:     NewInbox(cfg.Clock, 64),
		clock:     cfg.Clock,
		rand:      cfg.Random,
		log:       cfg.Logger.With(zap.String("code", cfg.Code), zap.String("mode", string(mode))),
	}, nil
}

func (s *Session) Code() string                { return s.code }
func (s *Session) Mode() engine.Mode           { return s.mode }
func (s *Session) Durations() engine.Durations { return s.durations }

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.inbox.Done() }

// Deliver hands a participant event to the running session.
func (s *Session) Deliver(ctx context.Context, m Msg) error {
	return s.inbox.Deliver(ctx, m)
}

// Snapshot returns the session state as seen by its own goroutine. It is
// answered the next time the session waits for events.
func (s *Session) Snapshot(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.inbox.Deliver(ctx, GetState{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.inbox.Done():
		return View{}, ErrSessionClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Run drives the session until the host stops replaying or the session is
// aborted. The returned error is non-nil only when the messaging surfaces
// could not be set up.
func (s *Session) Run(ctx context.Context) (Result, error) {
	defer s.inbox.Close()
	s.createdAt = s.clock.Now()
	s.log.Info("session created", zap.String("host", s.host.ID), zap.Int("capacity", s.roster.Capacity()))

	for {
		err := s.round(ctx)
		switch {
		case err == nil:
			s.log.Info("replaying", zap.Int("rounds", s.rounds))
		case errors.Is(err, errFinished):
			s.setState(engine.Finished{Replayed: s.replayed})
			s.log.Info("session finished", zap.Int("rounds", s.rounds), zap.Bool("replayed", s.replayed))
			return s.result(), nil
		case errors.Is(err, ErrUnreachable):
			s.log.Error("session setup failed", zap.Error(err))
			s.abort(ctx)
			return s.result(), err
		default:
			s.log.Info("session aborted", zap.String("phase", string(s.phase())), zap.Error(err))
			s.abort(ctx)
			return s.result(), nil
		}
	}
}

func (s *Session) round(ctx context.Context) error {
	if err := s.awaitPlayers(ctx); err != nil {
		return err
	}
	if err := s.decideTeams(ctx); err != nil {
		return err
	}
	startedAt, err := s.awaitMatchStart(ctx)
	if err != nil {
		return err
	}
	if err := s.hideTime(ctx, startedAt); err != nil {
		return err
	}
	if err := s.seekTime(ctx, startedAt); err != nil {
		return err
	}
	return s.playAgain(ctx, startedAt)
}

func (s *Session) awaitPlayers(ctx context.Context) error {
	now := s.clock.Now()
	s.roster.ResetRoles()
	s.announcement, s.control = "", ""
	s.enter(ctx, engine.Lobby{CreatedAt: now})

	id, err := s.board.Create(ctx, view.SettingUp())
	if err != nil {
		return s.setupFailed("create announcement", err)
	}
	s.announcement = id
	s.refresh(ctx)

	ctl, err := s.contacts[s.host.ID].reply.Notify(ctx, view.HostLobby(s.room(), s.roster.Host()))
	if err != nil {
		return s.setupFailed("create host controls", err)
	}
	s.control = ctl

	m, err := s.collect(ctx, now.Add(s.windows.Join), func(m Msg) bool {
		switch m := m.(type) {
		case Join:
			s.join(ctx, m)
		case Press:
			if m.Who.ID != s.host.ID {
				return false
			}
			switch m.Control {
			case view.CtlLobbyAbort:
				return true
			case view.CtlStart:
				if s.roster.Len() < 2 {
					s.reply(ctx, m.Reply, "Nobody's joined yet!")
					return false
				}
				return true
			}
		}
		return false
	})
	if err != nil {
		return fmt.Errorf("%w: waiting for players: %w", ErrAborted, err)
	}
	if m.(Press).Control == view.CtlLobbyAbort {
		return fmt.Errorf("%w: host cancelled the lobby", ErrAborted)
	}
	return nil
}

// join adds a participant. Membership problems are only reported back to
// the participant and never change the session.
func (s *Session) join(ctx context.Context, m Join) {
	if m.Who.ID == s.host.ID {
		s.reply(ctx, m.Reply, "You're the host!")
		return
	}
	p, err := s.roster.Add(m.Who)
	switch {
	case errors.Is(err, engine.ErrAlreadyJoined):
		s.reply(ctx, m.Reply, "You've already joined!")
		return
	case errors.Is(err, engine.ErrCapacityExceeded):
		s.reply(ctx, m.Reply, "The lobby is full!")
		return
	case err != nil:
		s.log.Warn("join failed", zap.String("player", m.Who.ID), zap.Error(err))
		return
	}

	c := &contact{reply: m.Reply}
	s.contacts[p.Identity.ID] = c
	if m.Reply != nil {
		id, err := m.Reply.Notify(ctx, view.RoleNotice(p))
		if err != nil {
			s.log.Debug("role notice not delivered", zap.String("player", p.Identity.ID), zap.Error(err))
		}
		c.notice = id
	}
	s.log.Info("player joined", zap.String("player", p.Identity.ID), zap.Int("players", s.roster.Len()))
	s.refresh(ctx)
}

func (s *Session) decideTeams(ctx context.Context) error {
	now := s.clock.Now()
	s.enter(ctx, engine.TeamSelect{CreatedAt: now})
	expires := now.Add(s.windows.Pick)
	s.editControl(ctx, view.HostTeams(s.room(), s.roster.Host(), s.roster.Players(), s.replayed, expires))

	m, err := s.collect(ctx, expires, s.hostPress(ctx, view.CtlRandom, view.CtlManual, view.CtlTeamsAbort, s.rotateControl()))
	if err != nil {
		return fmt.Errorf("%w: deciding teams: %w", ErrAborted, err)
	}
	press := m.(Press)
	if press.Control == view.CtlTeamsAbort {
		return fmt.Errorf("%w: host cancelled team selection", ErrAborted)
	}
	sel, err := parseSelection(press)
	if err == nil {
		err = engine.Assign(s.roster, sel, s.rand)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}

	hiders, seekers := s.roster.PartitionByRole()
	s.log.Info("teams decided", zap.String("policy", string(sel.Policy)),
		zap.Int("seekers", len(seekers)), zap.Int("hiders", len(hiders)))
	s.notifyRoles(ctx)
	return nil
}

func (s *Session) rotateControl() string {
	if s.replayed {
		return view.CtlRotate
	}
	return ""
}

func parseSelection(p Press) (engine.Selection, error) {
	switch p.Control {
	case view.CtlRotate, view.CtlRandom:
		if len(p.Values) != 1 {
			return engine.Selection{}, fmt.Errorf("%w: expected one value, got %d", engine.ErrInvalidSelection, len(p.Values))
		}
		n, err := strconv.Atoi(p.Values[0])
		if err != nil {
			return engine.Selection{}, fmt.Errorf("%w: %w", engine.ErrInvalidSelection, err)
		}
		policy := engine.PolicyRandom
		if p.Control == view.CtlRotate {
			policy = engine.PolicyRotate
		}
		return engine.Selection{Policy: policy, Count: n}, nil
	case view.CtlManual:
		return engine.Selection{Policy: engine.PolicyManual, Seekers: p.Values}, nil
	}
	return engine.Selection{}, fmt.Errorf("%w: unknown control %q", engine.ErrInvalidSelection, p.Control)
}

// notifyRoles tells every participant their team. Before the first replay
// the join notice is edited in place; afterwards a fresh notice is sent.
func (s *Session) notifyRoles(ctx context.Context) {
	g := s.fanout()
	for _, p := range s.roster.Players() {
		c := s.contacts[p.Identity.ID]
		if p.Host || c == nil || c.reply == nil {
			continue
		}
		g.Go(func() error {
			if !s.replayed && c.notice != "" {
				return s.quiet("role notice", c.reply.Edit(ctx, c.notice, view.RoleNotice(p)), p.Identity.ID)
			}
			id, err := c.reply.Notify(ctx, view.RoleNotice(p))
			if err == nil {
				c.notice = id
			}
			return s.quiet("role notice", err, p.Identity.ID)
		})
	}
	_ = g.Wait()
}

func (s *Session) awaitMatchStart(ctx context.Context) (time.Time, error) {
	now := s.clock.Now()
	s.enter(ctx, engine.AwaitStart{CreatedAt: now})
	expires := now.Add(s.windows.Confirm)
	s.editControl(ctx, view.HostAwaitStart(s.room(), s.roster.Host(), expires))

	m, err := s.collect(ctx, expires, s.hostPress(ctx, view.CtlStarted, view.CtlMatchAbort))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: waiting for match start: %w", ErrAborted, err)
	}
	if m.(Press).Control == view.CtlMatchAbort {
		return time.Time{}, fmt.Errorf("%w: host cancelled before the match", ErrAborted)
	}

	startedAt := s.clock.Now()
	s.rounds++
	s.editControl(ctx, view.HostStarted(s.room(), s.roster.Host()))
	id, err := s.board.Create(ctx, view.StartNotice(s.roster.Players(), s.durations.HideEnds(startedAt)))
	if err != nil {
		s.log.Debug("start notice not delivered", zap.Error(err))
	}
	s.startNotice = id
	return startedAt, nil
}

func (s *Session) hideTime(ctx context.Context, startedAt time.Time) error {
	s.enter(ctx, engine.Hiding{StartedAt: startedAt})
	if err := s.waitUntil(ctx, s.durations.HideEnds(startedAt)); err != nil {
		return err
	}
	s.deleteNotice(ctx, &s.startNotice)
	id, err := s.board.Create(ctx, view.SeekNotice(s.roster.Players(), s.durations.MatchEnds(startedAt)))
	if err != nil {
		s.log.Debug("seek notice not delivered", zap.Error(err))
	}
	s.seekNotice = id
	return nil
}

func (s *Session) seekTime(ctx context.Context, startedAt time.Time) error {
	s.enter(ctx, engine.Seeking{StartedAt: startedAt})
	if err := s.waitUntil(ctx, s.durations.MatchEnds(startedAt)); err != nil {
		return err
	}
	s.deleteNotice(ctx, &s.seekNotice)
	return nil
}

func (s *Session) playAgain(ctx context.Context, startedAt time.Time) error {
	now := s.clock.Now()
	s.enter(ctx, engine.Replay{StartedAt: startedAt})
	expires := now.Add(s.windows.Replay)
	s.editControl(ctx, view.HostPlayAgain(s.room(), expires))

	again := false
	m, err := s.collect(ctx, expires, s.hostPress(ctx, view.CtlPlayAgain, view.CtlNoPlayAgain))
	switch {
	case err == nil:
		again = m.(Press).Control == view.CtlPlayAgain
	case errors.Is(err, ErrTimeout):
	default:
		return fmt.Errorf("%w: waiting for replay decision: %w", ErrAborted, err)
	}
	if again {
		s.replayed = true
	}

	players := s.roster.Players()
	g := s.fanout()
	g.Go(func() error {
		return s.quiet("finish summary", s.board.Edit(ctx, s.announcement, view.Finished(players, s.roster.Capacity())), "")
	})
	g.Go(func() error {
		return s.quiet("host finish notice", s.contacts[s.host.ID].reply.Edit(ctx, s.control, view.HostFinished()), s.host.ID)
	})
	_ = g.Wait()
	for _, p := range players {
		if c := s.contacts[p.Identity.ID]; c != nil {
			c.summarized = true
		}
	}

	if !again {
		return errFinished
	}
	return nil
}

// waitUntil blocks until the clock reaches target. The remaining time is
// measured when the wait begins, so a stalled caller never waits too long.
func (s *Session) waitUntil(ctx context.Context, target time.Time) error {
	_, err := s.collect(ctx, target, func(m Msg) bool {
		if j, ok := m.(Join); ok {
			s.turnAway(ctx, j)
		}
		return false
	})
	if errors.Is(err, ErrTimeout) {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrAborted, err)
}

// collect wraps the inbox with the handling every window shares: snapshots
// are answered, shutdowns abort and late joins are turned away.
func (s *Session) collect(ctx context.Context, until time.Time, accept func(Msg) bool) (Msg, error) {
	m, err := s.inbox.Collect(ctx, until, func(m Msg) bool {
		switch m := m.(type) {
		case GetState:
			select {
			case m.Reply <- s.view():
			default:
			}
			return false
		case Shutdown:
			return true
		}
		return accept(m)
	})
	if err != nil {
		return nil, err
	}
	if _, ok := m.(Shutdown); ok {
		return nil, fmt.Errorf("%w: shut down", ErrAborted)
	}
	return m, nil
}

// hostPress accepts presses of the given controls by the host. Joins are
// turned away since the lobby is closed whenever this is used.
func (s *Session) hostPress(ctx context.Context, controls ...string) func(Msg) bool {
	return func(m Msg) bool {
		switch m := m.(type) {
		case Join:
			s.turnAway(ctx, m)
		case Press:
			if m.Who.ID != s.host.ID || m.Control == "" {
				return false
			}
			for _, c := range controls {
				if c == m.Control {
					return true
				}
			}
		}
		return false
	}
}

func (s *Session) turnAway(ctx context.Context, m Join) {
	if s.roster.Has(m.Who.ID) {
		s.reply(ctx, m.Reply, "You've already joined!")
		return
	}
	s.reply(ctx, m.Reply, "This game has already started!")
}

// enter moves to next and redraws the announcement for it.
func (s *Session) enter(ctx context.Context, next engine.State) {
	s.setState(next)
	s.refresh(ctx)
}

func (s *Session) setState(next engine.State) {
	from := s.phase()
	if !engine.CanTransition(from, next.Phase()) {
		s.log.DPanic("illegal phase transition", zap.String("from", string(from)), zap.String("to", string(next.Phase())))
	}
	s.state = next
	s.enteredAt = s.clock.Now()
	s.log.Info("phase", zap.String("from", string(from)), zap.String("to", string(next.Phase())))
}

func (s *Session) phase() engine.Phase {
	if s.state == nil {
		return ""
	}
	return s.state.Phase()
}

func (s *Session) room() view.Room {
	return view.Room{Code: s.code, Mode: s.mode}
}

func (s *Session) boardView() view.Board {
	return view.Board{
		State:      s.state,
		Players:    s.roster.Players(),
		Capacity:   s.roster.Capacity(),
		Host:       s.host,
		Durations:  s.durations,
		JoinWindow: s.windows.Join,
	}
}

func (s *Session) view() View {
	return View{
		Code:      s.code,
		Mode:      s.mode,
		Capacity:  s.roster.Capacity(),
		State:     s.state,
		EnteredAt: s.enteredAt,
		Players:   s.roster.Players(),
		Replayed:  s.replayed,
		Rounds:    s.rounds,
	}
}

func (s *Session) result() Result {
	r := Result{
		Code:      s.code,
		Mode:      s.mode,
		Outcome:   s.phase(),
		Rounds:    s.rounds,
		Replayed:  s.replayed,
		Players:   s.roster.Players(),
		CreatedAt: s.createdAt,
		EndedAt:   s.clock.Now(),
	}
	if a, ok := s.state.(engine.Aborted); ok {
		r.AbortedIn = a.From
	}
	return r
}

func (s *Session) setupFailed(what string, err error) error {
	if s.rounds == 0 {
		return fmt.Errorf("%w: %s: %w", ErrUnreachable, what, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrAborted, what, err)
}
