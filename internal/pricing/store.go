package pricing

import (
	"context"
	"sync"
	"time"

	"eatme/pkg/logger"
)

// Store serves the current pricing config from memory. Reads never touch the network.
type Store struct {
	mu      sync.RWMutex
	cfg     Config
	source  Source
	cache   Cache
	log     *logger.Logger
	backoff time.Duration
	done    chan struct{}
}

func NewStore(source Source, cache Cache, log *logger.Logger, backoff time.Duration) *Store {
	if cache == nil {
		cache = nopCache{}
	}
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	return &Store{
		cfg:     Defaults(),
		source:  source,
		cache:   cache,
		log:     log,
		backoff: backoff,
		done:    make(chan struct{}),
	}
}

func (s *Store) GetConfig() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// Start loads the current config and keeps it fresh in the background until ctx ends.
func (s *Store) Start(ctx context.Context) {
	if cached, err := s.cache.Load(ctx); err != nil {
		s.log.Debug("Pricing cache unavailable", "error", err)
	} else if cached != nil {
		s.replace(cached, false)
	}

	s.refresh(ctx)
	go s.watch(ctx)
}

// Done is closed once the background watcher has exited.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

func (s *Store) refresh(ctx context.Context) {
	cfg, err := s.source.Fetch(ctx)
	if err != nil {
		s.log.Warn("Failed to load pricing config, keeping current rates", "error", err)
		return
	}
	s.apply(cfg)
}

func (s *Store) watch(ctx context.Context) {
	defer close(s.done)

	for {
		err := s.source.Watch(ctx, s.apply)
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("Pricing subscription dropped, retrying",
			"error", err,
			"backoff", s.backoff,
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.backoff):
		}

		// Changes may have been missed while the stream was down.
		s.refresh(ctx)
	}
}

// apply installs cfg, or the defaults when the document is gone.
func (s *Store) apply(cfg *Config) {
	if cfg == nil {
		d := Defaults()
		cfg = &d
		s.log.Info("Pricing document absent, using default rates")
	}
	s.replace(cfg, true)
}

func (s *Store) replace(cfg *Config, mirror bool) {
	next := cfg.clone()
	if next.GuestRates == nil {
		next.GuestRates = Defaults().GuestRates
	}

	s.mu.Lock()
	s.cfg = next
	s.mu.Unlock()

	s.log.Debug("Pricing config updated", "rate_per_hour", next.RatePerHour, "bands", len(next.GuestRates))

	if !mirror {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Save(ctx, next); err != nil {
		s.log.Debug("Failed to mirror pricing config", "error", err)
	}
}
