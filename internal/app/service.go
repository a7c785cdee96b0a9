package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Jyoti203/tic-tac-toe/internal/ai"
)

// Errors exposed by the service layer.
var (
	ErrNotFound = errors.New("game not found")
	ErrClosed   = errors.New("service closed")
)

// Update is delivered to subscribers after every state change.
type Update struct {
	Session Session
	Events  []Event
}

type subscriber struct {
	ch        chan Update
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// subscriberBuffer absorbs a human move and the delayed AI reply.
const subscriberBuffer = 8

// Option configures a Service.
type Option func(*Service)

// WithAIDelay sets the pause before the computer replies. Zero replies synchronously.
func WithAIDelay(d time.Duration) Option {
	return func(s *Service) { s.aiDelay = d }
}

// WithStrategy replaces the computer's strategy.
func WithStrategy(st ai.Strategy) Option {
	return func(s *Service) {
		if st != nil {
			s.strategy = st
		}
	}
}

// WithLogger sets the logger used for background failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service manages sessions, subscribers and pending computer replies.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*Session
	subs     map[string]map[*subscriber]struct{}
	timers   map[string]*time.Timer
	strategy ai.Strategy
	aiDelay  time.Duration
	logger   *log.Logger
	closed   bool
}

// NewService creates an empty service. The computer uses the heuristic strategy by default.
func NewService(opts ...Option) *Service {
	s := &Service{
		sessions: make(map[string]*Session),
		subs:     make(map[string]map[*subscriber]struct{}),
		timers:   make(map[string]*time.Timer),
		strategy: ai.Heuristic{},
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates and registers a new session.
func (s *Service) CreateSession(mode Mode) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	sess := NewSession(newSessionID(), mode)
	s.sessions[sess.ID] = sess
	cp := *sess
	return &cp, nil
}

// Get returns a copy of the session if present.
func (s *Service) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookupLocked(id)
	if err != nil {
		return nil, false
	}
	cp := *sess
	return &cp, true
}

// Play applies a human move and, in ModePvAI, the computer's reply.
// With a zero AI delay the returned snapshot already contains the reply.
func (s *Service) Play(id string, index int) (*Session, error) {
	s.mu.Lock()
	sess, err := s.lookupOpenLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	events, err := sess.RequestMove(index)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if sess.AITurn() {
		if s.aiDelay <= 0 {
			reply, aiErr := sess.AIMove(s.strategy)
			if aiErr != nil {
				s.logger.Printf("game %s: computer move failed: %v", sess.ID, aiErr)
			}
			events = append(events, reply...)
		} else {
			s.scheduleAILocked(sess)
		}
	}
	return s.publishLocked(sess, events), nil
}

// SetMode switches the session's mode and restarts the round.
func (s *Service) SetMode(id string, m Mode) (*Session, error) {
	s.mu.Lock()
	sess, err := s.lookupOpenLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.cancelAILocked(sess.ID)
	return s.publishLocked(sess, sess.SetMode(m)), nil
}

// Restart clears the board of the session, keeping mode and tally.
func (s *Service) Restart(id string) (*Session, error) {
	s.mu.Lock()
	sess, err := s.lookupOpenLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.cancelAILocked(sess.ID)
	return s.publishLocked(sess, sess.RestartRound()), nil
}

// Subscribe registers a subscriber for a session. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan Update, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookupOpenLocked(id)
	if err != nil {
		return nil, nil, err
	}
	id = sess.ID
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan Update, subscriberBuffer)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}

// Close forgets a session, drops any pending computer reply and closes its subscribers.
func (s *Service) Close(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	s.cancelAILocked(sess.ID)
	for sub := range s.subs[sess.ID] {
		sub.close()
	}
	delete(s.subs, sess.ID)
	delete(s.sessions, sess.ID)
	return nil
}

// Shutdown stops every pending reply and closes all subscribers.
// Sessions stay readable; moves, mode switches, restarts and new subscriptions fail with ErrClosed.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id := range s.timers {
		s.cancelAILocked(id)
	}
	for id, set := range s.subs {
		for sub := range set {
			sub.close()
		}
		delete(s.subs, id)
	}
}

func (s *Service) lookupLocked(id string) (*Session, error) {
	key, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	sess, ok := s.sessions[key]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// lookupOpenLocked is lookupLocked for operations that change or watch a session;
// they are refused once the service is shut down.
func (s *Service) lookupOpenLocked(id string) (*Session, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return s.lookupLocked(id)
}

func (s *Service) scheduleAILocked(sess *Session) {
	id, round := sess.ID, sess.Round
	s.cancelAILocked(id)
	s.timers[id] = time.AfterFunc(s.aiDelay, func() { s.replyAI(id, round) })
}

func (s *Service) cancelAILocked(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// replyAI runs on the timer goroutine. A reset, mode switch or close since scheduling voids it.
func (s *Service) replyAI(id string, round int) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok || s.closed || sess.Round != round || !sess.AITurn() {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	events, err := sess.AIMove(s.strategy)
	if err != nil {
		s.mu.Unlock()
		s.logger.Printf("game %s: computer move failed: %v", id, err)
		return
	}
	s.publishLocked(sess, events)
}

// publishLocked fans the update out, then releases the lock. Sends never block,
// so a slow subscriber is closed and dropped instead of stalling the game.
func (s *Service) publishLocked(sess *Session, events []Event) *Session {
	defer s.mu.Unlock()
	cp := *sess
	u := Update{Session: cp, Events: events}
	set := s.subs[cp.ID]
	for sub := range s.copySubsLocked(cp.ID) {
		select {
		case sub.ch <- u:
		default:
			sub.close()
			delete(set, sub)
		}
	}
	return &cp
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{})
	if set, ok := s.subs[id]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}
