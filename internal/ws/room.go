package ws

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hide-and-seek/internal/session"
	"github.com/DoyleJ11/hide-and-seek/internal/types"
	"github.com/DoyleJ11/hide-and-seek/internal/view"
)

var ErrRoomClosed = errors.New("room closed")
var ErrUnknownMessage = errors.New("unknown message")
var ErrRoomExists = errors.New("room already open")

// clientBuffer is how many frames a connection may fall behind before it is
// dropped.
const clientBuffer = 32

// mailbox keeps live messages in creation order so a late connection can
// catch up.
type mailbox struct {
	order []session.MessageID
	msgs  map[session.MessageID]view.Payload
}

func newMailbox() *mailbox {
	return &mailbox{msgs: make(map[session.MessageID]view.Payload)}
}

func (m *mailbox) put(id session.MessageID, p view.Payload) {
	m.order = append(m.order, id)
	m.msgs[id] = p
}

func (m *mailbox) edit(id session.MessageID, p view.Payload) bool {
	if _, ok := m.msgs[id]; !ok {
		return false
	}
	m.msgs[id] = p
	return true
}

func (m *mailbox) remove(id session.MessageID) bool {
	if _, ok := m.msgs[id]; !ok {
		return false
	}
	delete(m.msgs, id)
	m.order = slices.DeleteFunc(m.order, func(x session.MessageID) bool { return x == id })
	return true
}

func (m *mailbox) frames(scope string) []types.ServerMessage {
	out := make([]types.ServerMessage, 0, len(m.order))
	for _, id := range m.order {
		p := m.msgs[id]
		out = append(out, types.ServerMessage{Type: types.TypeMessage, Scope: scope, MessageID: string(id), Payload: &p})
	}
	return out
}

type client struct {
	id   string
	user string
	out  chan types.ServerMessage
	done bool
}

// Room is the set of connections watching one session. It is the session's
// announcement board, and hands out a private surface per participant.
type Room struct {
	code string
	log  *zap.Logger

	mu      sync.Mutex
	board   *mailbox
	private map[string]*mailbox
	clients map[string]*client
	closed  bool
}

func newRoom(code string, log *zap.Logger) *Room {
	return &Room{
		code:    code,
		log:     log.With(zap.String("code", code)),
		board:   newMailbox(),
		private: make(map[string]*mailbox),
		clients: make(map[string]*client),
	}
}

func (r *Room) Create(_ context.Context, p view.Payload) (session.MessageID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrRoomClosed
	}
	id := session.MessageID(uuid.NewString())
	r.board.put(id, p)
	r.broadcast(types.ServerMessage{Type: types.TypeMessage, Scope: types.ScopeBoard, MessageID: string(id), Payload: &p})
	return id, nil
}

func (r *Room) Edit(_ context.Context, id session.MessageID, p view.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomClosed
	}
	if !r.board.edit(id, p) {
		return ErrUnknownMessage
	}
	r.broadcast(types.ServerMessage{Type: types.TypeEdit, Scope: types.ScopeBoard, MessageID: string(id), Payload: &p})
	return nil
}

func (r *Room) Delete(_ context.Context, id session.MessageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomClosed
	}
	if !r.board.remove(id) {
		return ErrUnknownMessage
	}
	r.broadcast(types.ServerMessage{Type: types.TypeDelete, Scope: types.ScopeBoard, MessageID: string(id)})
	return nil
}

// Private returns the surface only user's connections see.
func (r *Room) Private(user string) session.Responder {
	return &private{room: r, user: user}
}

type private struct {
	room *Room
	user string
}

func (p *private) Notify(_ context.Context, payload view.Payload) (session.MessageID, error) {
	r := p.room
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", ErrRoomClosed
	}
	id := session.MessageID(uuid.NewString())
	r.mailbox(p.user).put(id, payload)
	r.sendTo(p.user, types.ServerMessage{Type: types.TypeMessage, Scope: types.ScopePrivate, MessageID: string(id), Payload: &payload})
	return id, nil
}

func (p *private) Edit(_ context.Context, id session.MessageID, payload view.Payload) error {
	r := p.room
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomClosed
	}
	if !r.mailbox(p.user).edit(id, payload) {
		return ErrUnknownMessage
	}
	r.sendTo(p.user, types.ServerMessage{Type: types.TypeEdit, Scope: types.ScopePrivate, MessageID: string(id), Payload: &payload})
	return nil
}

func (r *Room) mailbox(user string) *mailbox {
	mb := r.private[user]
	if mb == nil {
		mb = newMailbox()
		r.private[user] = mb
	}
	return mb
}

// attach registers a connection for user and queues everything it missed.
func (r *Room) attach(user string) (*client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRoomClosed
	}
	backlog := r.board.frames(types.ScopeBoard)
	if mb := r.private[user]; mb != nil {
		backlog = append(backlog, mb.frames(types.ScopePrivate)...)
	}

	c := &client{
		id:   uuid.NewString(),
		user: user,
		out:  make(chan types.ServerMessage, len(backlog)+clientBuffer+1),
	}
	c.out <- types.ServerMessage{Type: types.TypeWelcome, Code: r.code, ConnID: c.id}
	for _, f := range backlog {
		c.out <- f
	}
	r.clients[c.id] = c
	r.log.Debug("connection attached", zap.String("user", user), zap.String("conn", c.id), zap.Int("backlog", len(backlog)))
	return c, nil
}

func (r *Room) detach(c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drop(c)
}

// reply sends f to a single connection.
func (r *Room) reply(c *client, f types.ServerMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.push(c, f)
}

// close tells every connection the session is over and disconnects it.
func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, c := range r.clients {
		r.push(c, types.ServerMessage{Type: types.TypeClosed, Code: r.code})
		r.drop(c)
	}
}

func (r *Room) broadcast(f types.ServerMessage) {
	for _, c := range r.clients {
		r.push(c, f)
	}
}

func (r *Room) sendTo(user string, f types.ServerMessage) {
	for _, c := range r.clients {
		if c.user == user {
			r.push(c, f)
		}
	}
}

func (r *Room) push(c *client, f types.ServerMessage) {
	if c.done {
		return
	}
	select {
	case c.out <- f:
	default:
		r.log.Warn("slow connection dropped", zap.String("user", c.user), zap.String("conn", c.id))
		r.drop(c)
	}
}

func (r *Room) drop(c *client) {
	if c.done {
		return
	}
	c.done = true
	close(c.out)
	delete(r.clients, c.id)
}

// connections is the number of attached connections.
func (r *Room) connections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
