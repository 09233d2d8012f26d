package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
	"github.com/DoyleJ11/hide-and-seek/internal/view"
)

var errGone = errors.New("unknown message")

// surface records every message sent through it. It serves as both a
// Responder and a Broadcaster.
type surface struct {
	mu         sync.Mutex
	name       string
	seq        int
	msgs       map[MessageID]view.Payload
	created    []MessageID
	deleted    []MessageID
	texts      []string
	failCreate bool
	failEdit   bool
}

func newSurface(name string) *surface {
	return &surface{name: name, msgs: map[MessageID]view.Payload{}}
}

func (f *surface) Notify(ctx context.Context, p view.Payload) (MessageID, error) {
	return f.Create(ctx, p)
}

func (f *surface) Create(_ context.Context, p view.Payload) (MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return "", errGone
	}
	f.seq++
	id := MessageID(fmt.Sprintf("%s-%d", f.name, f.seq))
	f.msgs[id] = p
	f.created = append(f.created, id)
	if p.Content != "" {
		f.texts = append(f.texts, p.Content)
	}
	return id, nil
}

func (f *surface) Edit(_ context.Context, id MessageID, p view.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEdit {
		return errGone
	}
	if _, ok := f.msgs[id]; !ok {
		return errGone
	}
	f.msgs[id] = p
	return nil
}

func (f *surface) Delete(_ context.Context, id MessageID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.msgs[id]; !ok {
		return errGone
	}
	delete(f.msgs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *surface) get(id MessageID) view.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs[id]
}

func (f *surface) replies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *surface) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type seeded struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newSeeded(seed uint64) *seeded { return &seeded{r: rand.New(rand.NewPCG(seed, seed+1))} }

func (s *seeded) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

var start = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	s      *Session
	clock  *ManualClock
	board  *surface
	host   *surface
	hostID engine.Identity
	done   chan runResult
}

type runResult struct {
	res Result
	err error
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		clock:  NewManualClock(start),
		board:  newSurface("board"),
		host:   newSurface("host"),
		hostID: engine.Identity{ID: "host", Name: "Host"},
		done:   make(chan runResult, 1),
	}
	cfg := Config{
		Code:      "1234",
		Mode:      engine.ModeTurfWar,
		Capacity:  4,
		Host:      h.hostID,
		HostReply: h.host,
		Board:     h.board,
		Prod:      true,
		Clock:     h.clock,
		Random:    newSeeded(3),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	require.NoError(t, err)
	h.s = s
	return h
}

func (h *harness) run() {
	go func() {
		res, err := h.s.Run(context.Background())
		h.done <- runResult{res, err}
	}()
}

func (h *harness) wait() runResult {
	h.t.Helper()
	select {
	case r := <-h.done:
		return r
	case <-time.After(2 * time.Second):
		h.t.Fatalf("session did not finish")
		return runResult{}
	}
}

func (h *harness) deliver(m Msg) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(h.t, h.s.Deliver(ctx, m))
}

func (h *harness) join(id string, reply Responder) {
	h.t.Helper()
	h.deliver(Join{Who: engine.Identity{ID: id, Name: "Player " + id}, Reply: reply})
}

func (h *harness) press(control string, values ...string) {
	h.t.Helper()
	h.deliver(Press{Who: h.hostID, Control: control, Values: values, Reply: h.host})
}

// phase waits until the session reports the wanted phase.
func (h *harness) phase(want engine.Phase) View {
	h.t.Helper()
	var v View
	require.Eventually(h.t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		got, err := h.s.Snapshot(ctx)
		if err != nil || got.State == nil {
			return false
		}
		v = got
		return got.State.Phase() == want
	}, 2*time.Second, 2*time.Millisecond, "waiting for phase %s", want)
	return v
}

func (h *harness) snapshot() View {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := h.s.Snapshot(ctx)
	require.NoError(h.t, err)
	return v
}
