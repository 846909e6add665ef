package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/cobill/internal/auth"
	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/realtime"
	"github.com/mmynk/cobill/internal/storage"
	"github.com/mmynk/cobill/internal/storage/sqlite"
)

// testEnv wires every service over a temp-file SQLite store and a Recorder.
type testEnv struct {
	store        storage.Store
	rec          *realtime.Recorder
	totals       *TotalsService
	sessions     *SessionService
	participants *ParticipantService
	items        *ItemService
	auth         *AuthService
}

func newTestEnv(t *testing.T, opts ...SessionOption) *testEnv {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return newTestEnvWithStore(t, store, opts...)
}

func newTestEnvWithStore(t *testing.T, store storage.Store, opts ...SessionOption) *testEnv {
	t.Helper()
	rec := realtime.NewRecorder()
	totals := NewTotalsService(store)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	return &testEnv{
		store:        store,
		rec:          rec,
		totals:       totals,
		sessions:     NewSessionService(store, rec, totals, opts...),
		participants: NewParticipantService(store, rec),
		items:        NewItemService(store, rec, totals),
		auth:         NewAuthService(auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost), jwtManager, store),
	}
}

func (e *testEnv) mustUser(t *testing.T, email, name string) *models.User {
	t.Helper()
	user := models.NewUser(email, name, "hash")
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) mustSession(t *testing.T, tip string) *models.Session {
	t.Helper()
	params := CreateSessionParams{}
	if tip != "" {
		d := decimal.RequireFromString(tip)
		params.TipPercent = &d
	}
	session, err := e.sessions.Create(context.Background(), params)
	require.NoError(t, err)
	return session
}

func (e *testEnv) mustGuest(t *testing.T, session *models.Session, name string) *models.Participant {
	t.Helper()
	p, _, _, err := e.participants.Join(context.Background(), JoinParams{Code: session.Code, GuestName: &name})
	require.NoError(t, err)
	return p
}

func (e *testEnv) mustItem(t *testing.T, p *models.Participant, desc, amount string) *models.Item {
	t.Helper()
	item, err := e.items.AddItem(context.Background(), AddItemParams{
		ParticipantID: p.ID,
		Description:   desc,
		Amount:        decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return item
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// conflictingStore rejects the first n session inserts as duplicate codes.
type conflictingStore struct {
	storage.Store
	remaining int
	attempts  int
}

func (s *conflictingStore) CreateSession(ctx context.Context, session *models.Session) error {
	s.attempts++
	if s.remaining != 0 {
		s.remaining--
		return storage.ErrConflict
	}
	return s.Store.CreateSession(ctx, session)
}

func (s *conflictingStore) CreateSessionWithCreator(ctx context.Context, session *models.Session, creator *models.Participant) error {
	s.attempts++
	if s.remaining != 0 {
		s.remaining--
		return storage.ErrConflict
	}
	return s.Store.CreateSessionWithCreator(ctx, session, creator)
}

// danglingCreatorStore points every creator at a user that does not exist.
type danglingCreatorStore struct {
	storage.Store
}

func (s danglingCreatorStore) CreateSessionWithCreator(ctx context.Context, session *models.Session, creator *models.Participant) error {
	creator.UserID = lo.ToPtr(int64(424242))
	creator.GuestName = nil
	return s.Store.CreateSessionWithCreator(ctx, session, creator)
}

// brokenSumStore fails every session aggregate.
type brokenSumStore struct {
	storage.Store
}

func (brokenSumStore) SumItemsBySession(context.Context, int64) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("database is locked")
}
