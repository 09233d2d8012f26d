package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
	"github.com/DoyleJ11/hide-and-seek/internal/session"
)

var ErrNoCodes = errors.New("no free room code")
var ErrHubClosed = errors.New("hub is shut down")

// maxCodeAttempts bounds the search for an unused four digit code.
const maxCodeAttempts = 100

// Transport provides the messaging surfaces of a session.
type Transport interface {
	Open(code string, host engine.Identity) (session.Responder, session.Broadcaster, error)
	Close(code string)
}

// Recorder stores the outcome of every session that ran.
type Recorder interface {
	Record(ctx context.Context, r session.Result) error
}

type Options struct {
	Transport  Transport
	Recorder   Recorder
	Logger     *zap.Logger
	Prod       bool
	Windows    session.Windows
	MaxPlayers int
	Random     engine.RandomSource
	Clock      session.Clock
}

type HubMsg interface{ isHubMsg() }

// CreateSession opens a new session hosted by Host. Capacity counts the host.
type CreateSession struct {
	Host     engine.Identity
	Mode     engine.Mode
	Capacity int
	Reply    chan Created
}

type Created struct {
	Session *session.Session
	Err     error
}

type GetSession struct {
	Code  string
	Reply chan *session.Session
}

type CountSessions struct {
	Reply chan int
}

type RemoveSession struct {
	Code string
	S    *session.Session
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (CountSessions) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

// Hub owns the registry of running sessions, keyed by room code.
type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	opts     Options
	log      *zap.Logger
	running  sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Random == nil {
		opts.Random = engine.CryptoSource{}
	}
	if opts.MaxPlayers == 0 {
		opts.MaxPlayers = 8
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		opts:     opts,
		log:      opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) send(ctx context.Context, m HubMsg) error {
	if h.ctx.Err() != nil {
		return ErrHubClosed
	}
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Create opens a session and starts running it.
func (h *Hub) Create(ctx context.Context, host engine.Identity, mode engine.Mode, capacity int) (*session.Session, error) {
	reply := make(chan Created, 1)
	if err := h.send(ctx, CreateSession{Host: host, Mode: mode, Capacity: capacity, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case c := <-reply:
		return c.Session, c.Err
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get returns the running session for code, or nil.
func (h *Hub) Get(ctx context.Context, code string) *session.Session {
	reply := make(chan *session.Session, 1)
	if h.send(ctx, GetSession{Code: code, Reply: reply}) != nil {
		return nil
	}
	select {
	case s := <-reply:
		return s
	case <-h.ctx.Done():
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) Count(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := h.send(ctx, CountSessions{Reply: reply}); err != nil {
		return 0, err
	}
	select {
	case n := <-reply:
		return n, nil
	case <-h.ctx.Done():
		return 0, ErrHubClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Shutdown aborts every running session and waits for them to finish or for
// ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	// no session starts once the loop has stopped
	select {
	case <-h.ctx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	done := make(chan struct{})
	go func() {
		h.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				s, err := h.create(msg)
				msg.Reply <- Created{Session: s, Err: err}

			case GetSession:
				msg.Reply <- h.sessions[msg.Code] // May be nil

			case CountSessions:
				msg.Reply <- len(h.sessions)

			case RemoveSession:
				if h.sessions[msg.Code] == msg.S {
					delete(h.sessions, msg.Code)
				}

			case ShutdownHub:
				for _, s := range h.sessions {
					ctx, cancel := context.WithTimeout(h.ctx, time.Second)
					if err := s.Deliver(ctx, session.Shutdown{}); err != nil {
						h.log.Debug("shutdown not delivered", zap.String("code", s.Code()), zap.Error(err))
					}
					cancel()
				}
				clear(h.sessions)
				h.cancel()
			}
		}
	}
}

func (h *Hub) create(msg CreateSession) (*session.Session, error) {
	if msg.Capacity < 2 || msg.Capacity > h.opts.MaxPlayers {
		return nil, fmt.Errorf("%w: capacity %d outside [2,%d]", engine.ErrInvalidCapacity, msg.Capacity, h.opts.MaxPlayers)
	}
	if _, err := engine.ParseMode(string(msg.Mode)); err != nil {
		return nil, err
	}

	code, err := h.freeCode()
	if err != nil {
		return nil, err
	}
	hostReply, board, err := h.opts.Transport.Open(code, msg.Host)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrUnreachable, err)
	}

	s, err := session.New(session.Config{
		Code:      code,
		Mode:      msg.Mode,
		Capacity:  msg.Capacity,
		Host:      msg.Host,
		HostReply: hostReply,
		Board:     board,
		Prod:      h.opts.Prod,
		Windows:   h.opts.Windows,
		Clock:     h.opts.Clock,
		Random:    h.opts.Random,
		Logger:    h.log,
	})
	if err != nil {
		h.opts.Transport.Close(code)
		return nil, err
	}
	h.sessions[code] = s

	h.running.Add(1)
	go h.run(s)
	return s, nil
}

func (h *Hub) freeCode() (string, error) {
	for range maxCodeAttempts {
		c := engine.NewCode(h.opts.Random)
		if h.sessions[c] == nil {
			return c, nil
		}
		h.log.Debug("collision on code, regenerating", zap.String("code", c))
	}
	return "", ErrNoCodes
}

func (h *Hub) run(s *session.Session) {
	defer h.running.Done()

	res, err := s.Run(h.ctx)
	if err != nil {
		h.log.Error("session ended unreachable", zap.String("code", s.Code()), zap.Error(err))
	}
	h.opts.Transport.Close(s.Code())

	if h.opts.Recorder != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), 5*time.Second)
		if err := h.opts.Recorder.Record(ctx, res); err != nil {
			h.log.Warn("match not recorded", zap.String("code", s.Code()), zap.Error(err))
		}
		cancel()
	}

	select {
	case h.inbox <- RemoveSession{Code: s.Code(), S: s}:
	case <-h.ctx.Done():
	}
}
