package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/saeid-a/CoachEscrow/internal/ledger"
	"github.com/saeid-a/CoachEscrow/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps every namespace in process memory. Transactions are
// serialized by a store-wide lock and run against a private copy of the
// state that replaces the live one only when the callback succeeds.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
	now   func() time.Time
}

type balanceKey struct {
	asset  string
	holder string
}

type memoryState struct {
	config   *models.EscrowConfig
	sessions map[uint64]models.CoachingSession
	stats    map[string]models.ClientStats
	balances map[balanceKey]decimal.Decimal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			sessions: make(map[uint64]models.CoachingSession),
			stats:    make(map[string]models.ClientStats),
			balances: make(map[balanceKey]decimal.Decimal),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryState) clone() *memoryState {
	next := &memoryState{
		sessions: make(map[uint64]models.CoachingSession, len(s.sessions)),
		stats:    make(map[string]models.ClientStats, len(s.stats)),
		balances: make(map[balanceKey]decimal.Decimal, len(s.balances)),
	}
	if s.config != nil {
		cfg := *s.config
		next.config = &cfg
	}
	for id, session := range s.sessions {
		next.sessions[id] = session
	}
	for client, stats := range s.stats {
		next.stats[client] = stats
	}
	for key, balance := range s.balances {
		next.balances[key] = balance
	}
	return next
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(repos Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	draft := m.state.clone()
	view := &memoryView{store: m, state: draft, inTx: true}
	if err := fn(view.repositories()); err != nil {
		return err
	}
	m.state = draft
	return nil
}

// Repositories returns accessors that lock the store per call. Writes made
// through them apply immediately; use InTx for anything multi-step.
func (m *MemoryStore) Repositories() Repositories {
	view := &memoryView{store: m}
	return view.repositories()
}

type memoryView struct {
	store *MemoryStore
	state *memoryState
	inTx  bool
}

func (v *memoryView) repositories() Repositories {
	return Repositories{
		Sessions: memorySessions{v},
		Stats:    memoryStats{v},
		Config:   memoryConfig{v},
		Accounts: memoryAccounts{v},
	}
}

func (v *memoryView) read(fn func(state *memoryState) error) error {
	if v.inTx {
		return fn(v.state)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.state)
}

func (v *memoryView) write(fn func(state *memoryState) error) error {
	if v.inTx {
		return fn(v.state)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	draft := v.store.state.clone()
	if err := fn(draft); err != nil {
		return err
	}
	v.store.state = draft
	return nil
}

type memorySessions struct{ view *memoryView }

func (r memorySessions) Create(_ context.Context, session *models.CoachingSession) error {
	return r.view.write(func(state *memoryState) error {
		if _, exists := state.sessions[session.SessionID]; exists {
			return ErrAlreadyExists
		}
		now := r.view.store.now()
		session.CreatedAt = now
		session.UpdatedAt = now
		state.sessions[session.SessionID] = *session
		return nil
	})
}

func (r memorySessions) GetByID(_ context.Context, sessionID uint64) (*models.CoachingSession, error) {
	var found models.CoachingSession
	err := r.view.read(func(state *memoryState) error {
		session, ok := state.sessions[sessionID]
		if !ok {
			return ErrNotFound
		}
		found = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r memorySessions) GetByIDForUpdate(ctx context.Context, sessionID uint64) (*models.CoachingSession, error) {
	return r.GetByID(ctx, sessionID)
}

func (r memorySessions) UpdateFlags(_ context.Context, session *models.CoachingSession) error {
	return r.view.write(func(state *memoryState) error {
		stored, ok := state.sessions[session.SessionID]
		if !ok {
			return ErrNotFound
		}
		stored.Attended = session.Attended
		stored.AttendanceMarked = session.AttendanceMarked
		stored.Completed = session.Completed
		stored.UpdatedAt = r.view.store.now()
		state.sessions[session.SessionID] = stored
		session.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

func (r memorySessions) List(_ context.Context, filter SessionListFilter) ([]models.CoachingSession, error) {
	sessions := make([]models.CoachingSession, 0)
	err := r.view.read(func(state *memoryState) error {
		for _, session := range state.sessions {
			party := session.Client
			if filter.Party == "coach" {
				party = session.Coach
			}
			if party == filter.Identity {
				sessions = append(sessions, session)
			}
		}
		return nil
	})
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].SessionID < sessions[j].SessionID
	})
	return sessions, err
}

type memoryStats struct{ view *memoryView }

func (r memoryStats) Get(_ context.Context, client string) (*models.ClientStats, error) {
	var found models.ClientStats
	err := r.view.read(func(state *memoryState) error {
		stats, ok := state.stats[client]
		if !ok {
			return ErrNotFound
		}
		found = stats
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r memoryStats) GetForUpdate(ctx context.Context, client string) (*models.ClientStats, error) {
	return r.Get(ctx, client)
}

func (r memoryStats) Save(_ context.Context, stats *models.ClientStats) error {
	return r.view.write(func(state *memoryState) error {
		state.stats[stats.Client] = *stats
		return nil
	})
}

type memoryConfig struct{ view *memoryView }

func (r memoryConfig) Get(_ context.Context) (*models.EscrowConfig, error) {
	var found models.EscrowConfig
	err := r.view.read(func(state *memoryState) error {
		if state.config == nil {
			return ErrNotFound
		}
		found = *state.config
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r memoryConfig) GetForUpdate(ctx context.Context) (*models.EscrowConfig, error) {
	return r.Get(ctx)
}

func (r memoryConfig) Insert(_ context.Context, paymentAsset string) error {
	return r.view.write(func(state *memoryState) error {
		if state.config != nil {
			return ErrAlreadyExists
		}
		state.config = &models.EscrowConfig{
			PaymentAsset:  paymentAsset,
			InitializedAt: r.view.store.now(),
		}
		return nil
	})
}

func (r memoryConfig) SetSessionCounter(_ context.Context, counter uint64) error {
	return r.view.write(func(state *memoryState) error {
		if state.config == nil {
			return ErrNotFound
		}
		state.config.SessionCounter = counter
		return nil
	})
}

type memoryAccounts struct{ view *memoryView }

func (r memoryAccounts) Debit(_ context.Context, asset, holder string, amount decimal.Decimal) error {
	return r.view.write(func(state *memoryState) error {
		key := balanceKey{asset: asset, holder: holder}
		current := state.balances[key]
		if current.LessThan(amount) {
			return ledger.ErrInsufficientFunds
		}
		state.balances[key] = current.Sub(amount)
		return nil
	})
}

func (r memoryAccounts) Credit(_ context.Context, asset, holder string, amount decimal.Decimal) error {
	return r.view.write(func(state *memoryState) error {
		key := balanceKey{asset: asset, holder: holder}
		state.balances[key] = state.balances[key].Add(amount)
		return nil
	})
}

func (r memoryAccounts) Balance(_ context.Context, asset, holder string) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := r.view.read(func(state *memoryState) error {
		if current, ok := state.balances[balanceKey{asset: asset, holder: holder}]; ok {
			balance = current
		}
		return nil
	})
	return balance, err
}

var (
	_ Store           = (*MemoryStore)(nil)
	_ Store           = (*PostgresStore)(nil)
	_ ledger.Accounts = memoryAccounts{}
)
