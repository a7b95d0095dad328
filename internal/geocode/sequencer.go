package geocode

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded 同一会话已发起更新的查询，本次结果作废
var ErrSuperseded = errors.New("geocode query superseded")

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// Sequencer 按会话保证“最后一次查询生效”
type Sequencer struct {
	mu       sync.Mutex
	sessions map[string]*inflight
	next     uint64
}

// NewSequencer 创建序列器
func NewSequencer() *Sequencer {
	return &Sequencer{sessions: make(map[string]*inflight)}
}

// Ticket 单次查询凭证
type Ticket struct {
	seq     uint64
	session string
	owner   *Sequencer
}

// Begin 登记新查询并取消该会话上一次仍在进行的查询
func (s *Sequencer) Begin(ctx context.Context, session string) (context.Context, *Ticket) {
	child, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	if prev, ok := s.sessions[session]; ok {
		prev.cancel()
	}
	s.sessions[session] = &inflight{seq: s.next, cancel: cancel}
	return child, &Ticket{seq: s.next, session: session, owner: s}
}

// Finish 结束查询；若已被更新的查询取代则返回 ErrSuperseded
func (t *Ticket) Finish() error {
	s := t.owner
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[t.session]
	if !ok || current.seq != t.seq {
		return ErrSuperseded
	}
	current.cancel()
	delete(s.sessions, t.session)
	return nil
}

// Pending 正在进行的会话数
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
