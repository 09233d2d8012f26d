package ws

import (
	"sync"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
	"github.com/DoyleJ11/hide-and-seek/internal/session"
)

// Server keeps one Room per open session and is the hub's transport.
type Server struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	origins []string
	log     *zap.Logger
}

// NewServer accepts same-origin connections plus any origin matching one of
// the given host patterns.
func NewServer(log *zap.Logger, origins ...string) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{rooms: make(map[string]*Room), origins: origins, log: log}
}

func (s *Server) Open(code string, host engine.Identity) (session.Responder, session.Broadcaster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		return nil, nil, ErrRoomExists
	}
	r := newRoom(code, s.log)
	s.rooms[code] = r
	return r.Private(host.ID), r, nil
}

func (s *Server) Close(code string) {
	s.mu.Lock()
	r := s.rooms[code]
	delete(s.rooms, code)
	s.mu.Unlock()
	if r != nil {
		r.close()
	}
}

func (s *Server) Room(code string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[code]
}
