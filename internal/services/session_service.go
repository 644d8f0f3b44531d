package services

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/utils"
	"storefront/internal/wizard"

	"go.uber.org/zap"
)

// DraftPurger is implemented by storages that can drop abandoned drafts.
type DraftPurger interface {
	PurgeOlderThan(age time.Duration) (int64, error)
}

// Session is one live wizard with its background pricing.
type Session struct {
	Context    domain.SessionContext
	Store      *wizard.Store
	Calculator *PricingCalculator

	cancel   context.CancelFunc
	done     chan struct{}
	lastSeen time.Time
}

type SessionConfig struct {
	Storage        wizard.DraftStorage
	Routes         wizard.RouteLookup
	Policy         wizard.Policy
	Pricing        PricingAPI
	Rules          pricing.Rules
	Tolerance      float64
	PricingTimeout time.Duration
	IdleTTL        time.Duration
	DraftRetention time.Duration
	AutoPricing    bool
	Logger         *zap.Logger
	Now            func() time.Time
}

// SessionService keeps one store per (product, session), plus a pricing
// worker when AutoPricing is set.
// Idle sessions are evicted; their persisted draft is rehydrated on next use.
type SessionService struct {
	cfg SessionConfig
	log *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSessionService(cfg SessionConfig) *SessionService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Policy.Location == nil {
		cfg.Policy.Location = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionService{
		cfg:      cfg,
		log:      utils.OrNop(cfg.Logger),
		sessions: map[string]*Session{},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Get returns the live session, opening and rehydrating it on first use.
func (s *SessionService) Get(sc domain.SessionContext) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.InternalError{Msg: "session service is shutting down"}
	}
	if sess, ok := s.sessions[sc.Key()]; ok {
		sess.lastSeen = s.cfg.Now()
		return sess, nil
	}

	store, err := wizard.Open(wizard.Options{
		Product:   sc.Product,
		SessionID: sc.SessionID,
		Storage:   s.cfg.Storage,
		Routes:    s.cfg.Routes,
		Policy:    s.cfg.Policy,
		Now:       s.cfg.Now,
		Logger:    s.log,
	})
	if err != nil {
		return nil, err
	}
	calc := &PricingCalculator{
		Client:    s.cfg.Pricing,
		Rules:     s.cfg.Rules,
		Tolerance: s.cfg.Tolerance,
		Timeout:   s.cfg.PricingTimeout,
		Logger:    s.log.With(zap.String("session", sc.Key())),
	}
	ctx, cancel := context.WithCancel(s.ctx)
	sess := &Session{
		Context:    sc,
		Store:      store,
		Calculator: calc,
		cancel:     cancel,
		done:       make(chan struct{}),
		lastSeen:   s.cfg.Now(),
	}
	if s.cfg.AutoPricing {
		worker := NewPricingWorker(store, calc, s.log)
		go func() {
			defer close(sess.done)
			_ = worker.Run(ctx)
		}()
	} else {
		close(sess.done)
	}
	s.sessions[sc.Key()] = sess
	s.log.Debug("wizard session opened", zap.String("session", sc.Key()))
	return sess, nil
}

// Len reports the number of live sessions.
func (s *SessionService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle stops sessions not used for longer than the idle TTL.
func (s *SessionService) EvictIdle() int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.cfg.Now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var idle []*Session
	for k, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			idle = append(idle, sess)
			delete(s.sessions, k)
		}
	}
	s.mu.Unlock()

	for _, sess := range idle {
		sess.cancel()
		<-sess.done
	}
	if len(idle) > 0 {
		s.log.Info("idle wizard sessions evicted", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// RunJanitor evicts idle sessions and purges abandoned drafts every interval until ctx ends.
func (s *SessionService) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.EvictIdle()
			s.purge()
		}
	}
}

func (s *SessionService) purge() {
	p, ok := s.cfg.Storage.(DraftPurger)
	if !ok || s.cfg.DraftRetention <= 0 {
		return
	}
	n, err := p.PurgeOlderThan(s.cfg.DraftRetention)
	if err != nil {
		s.log.Warn("draft purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("abandoned drafts purged", zap.Int64("count", n))
	}
}

// Shutdown stops every worker and refuses new sessions.
func (s *SessionService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	all := make([]*Session, 0, len(s.sessions))
	for k, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, k)
	}
	s.mu.Unlock()

	s.cancel()
	for _, sess := range all {
		<-sess.done
	}
}
