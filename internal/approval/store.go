package approval

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is how long an approval stays live without a decision.
	DefaultTimeout = 30 * time.Minute

	// DefaultSweepInterval is how often the expiry sweep runs. Expired
	// entries stay visible until the next sweep; that bounded staleness is
	// deliberate, there are no per-entry timers.
	DefaultSweepInterval = 5 * time.Minute
)

// StoreConfig configures a Store.
type StoreConfig struct {
	// Timeout returns the current approval TTL. It is consulted on every
	// Add so live configuration changes take effect immediately. When nil
	// or non-positive, DefaultTimeout applies.
	Timeout func() time.Duration

	// SweepInterval is the period of the automatic expiry sweep.
	// Defaults to DefaultSweepInterval.
	SweepInterval time.Duration
}

// record pairs an approval with its insertion sequence for oldest-first
// listings.
type record struct {
	approval PendingApproval
	seq      uint64
}

// Store is the in-memory approval queue.
//
// All operations are atomic steps under one mutex; no operation observes a
// partially updated entry.
type Store struct {
	config StoreConfig
	logger *zap.Logger
	bus    *Bus

	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	entries map[string]record
	seq     uint64

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock injects the time source. Tests use this to control expiry.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDFunc injects the id generator. Ids only need uniqueness among live
// entries; the default is a random UUID.
func WithIDFunc(newID func() string) StoreOption {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore creates an approval store. Call Start to run the periodic expiry
// sweep; CleanupExpired can also be invoked directly.
func NewStore(config StoreConfig, logger *zap.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSweepInterval
	}

	s := &Store{
		config:  config,
		logger:  logger,
		bus:     NewBus(logger),
		now:     time.Now,
		newID:   uuid.NewString,
		entries: make(map[string]record),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener for lifecycle events.
func (s *Store) Subscribe() (<-chan Event, func()) {
	return s.bus.Subscribe()
}

// timeout resolves the live TTL for new entries.
func (s *Store) timeout() time.Duration {
	if s.config.Timeout != nil {
		if d := s.config.Timeout(); d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// Add inserts a new pending approval and returns its id.
func (s *Store) Add(draft Draft) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := PendingApproval{
		ID:                s.newID(),
		Phone:             draft.Phone,
		PushName:          draft.PushName,
		OriginalMessage:   draft.OriginalMessage,
		SuggestedResponse: draft.SuggestedResponse,
		Intent:            draft.Intent,
		Confidence:        draft.Confidence,
		Language:          draft.Language,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.timeout()),
		Metadata:          draft.Metadata,
	}

	s.seq++
	s.entries[entry.ID] = record{approval: entry, seq: s.seq}

	s.logger.Debug("approval added",
		zap.String("id", entry.ID),
		zap.String("intent", entry.Intent),
		zap.String("phone", entry.Phone),
		zap.Time("expires_at", entry.ExpiresAt),
	)
	s.bus.Publish(Event{Kind: EventAdded, ID: entry.ID})
	return entry.ID
}

// Get returns a copy of the entry, or false if the id is unknown or already
// terminal.
func (s *Store) Get(id string) (PendingApproval, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok {
		return PendingApproval{}, false
	}
	return rec.approval, true
}

// ByPhone returns all live entries for a phone number, oldest first.
func (s *Store) ByPhone(phone string) []PendingApproval {
	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []record
	for _, rec := range s.entries {
		if rec.approval.Phone == phone {
			recs = append(recs, rec)
		}
	}
	return sortedApprovals(recs)
}

// All returns every live entry, oldest first.
func (s *Store) All() []PendingApproval {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := make([]record, 0, len(s.entries))
	for _, rec := range s.entries {
		recs = append(recs, rec)
	}
	return sortedApprovals(recs)
}

// Approve removes the entry and announces the final response text: the
// edited text when non-empty, otherwise the original suggestion. Returns
// false without side effects if the id is unknown or already terminal.
func (s *Store) Approve(id, editedResponse string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok {
		return false
	}
	delete(s.entries, id)

	response := rec.approval.SuggestedResponse
	if editedResponse != "" {
		response = editedResponse
	}

	s.logger.Info("approval approved",
		zap.String("id", id),
		zap.String("intent", rec.approval.Intent),
		zap.Bool("edited", editedResponse != ""),
	)
	s.bus.Publish(Event{Kind: EventApproved, ID: id, Response: response})
	return true
}

// Reject removes the entry and announces the rejection. Returns false
// without side effects if the id is unknown or already terminal.
func (s *Store) Reject(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[id]
	if !ok {
		return false
	}
	delete(s.entries, id)

	s.logger.Info("approval rejected",
		zap.String("id", id),
		zap.String("intent", rec.approval.Intent),
	)
	s.bus.Publish(Event{Kind: EventRejected, ID: id})
	return true
}

// CleanupExpired removes every entry whose deadline has passed and returns
// the count removed. One expired event is published per removed entry.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var expired []record
	for id, rec := range s.entries {
		if rec.approval.ExpiresAt.Before(now) {
			expired = append(expired, rec)
			delete(s.entries, id)
		}
	}

	// Announce in creation order for a deterministic event stream.
	sort.Slice(expired, func(i, j int) bool { return expired[i].seq < expired[j].seq })
	for _, rec := range expired {
		s.logger.Info("approval expired",
			zap.String("id", rec.approval.ID),
			zap.String("intent", rec.approval.Intent),
		)
		s.bus.Publish(Event{Kind: EventExpired, ID: rec.approval.ID})
	}
	return len(expired)
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sortedApprovals orders records oldest-created-first and strips the
// bookkeeping.
func sortedApprovals(recs []record) []PendingApproval {
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]PendingApproval, len(recs))
	for i, rec := range recs {
		out[i] = rec.approval
	}
	return out
}
