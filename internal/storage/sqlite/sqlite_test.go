package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mustSession(t *testing.T, store *SQLiteStore, code string) *models.Session {
	t.Helper()
	session := &models.Session{Code: code, TipPercent: models.DefaultTipPercent}
	require.NoError(t, store.CreateSession(context.Background(), session))
	return session
}

func mustGuest(t *testing.T, store *SQLiteStore, sessionID int64, name string) *models.Participant {
	t.Helper()
	p := &models.Participant{SessionID: sessionID, GuestName: lo.ToPtr(name)}
	require.NoError(t, store.CreateParticipant(context.Background(), p))
	return p
}

func TestUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		user := models.NewUser("alice@example.com", "Alice", "hash")
		require.NoError(t, store.CreateUser(ctx, user))
		assert.NotZero(t, user.ID)

		byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := store.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", byID.DisplayName)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		err := store.CreateUser(ctx, models.NewUser("alice@example.com", "Other", "hash"))
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := store.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = store.GetUserByID(ctx, 9999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("create assigns id and defaults", func(t *testing.T) {
		session := &models.Session{
			Code:        "ABC123",
			DisplayName: lo.ToPtr("Friday dinner"),
			TipPercent:  decimal.RequireFromString("12.5"),
		}
		require.NoError(t, store.CreateSession(ctx, session))
		assert.NotZero(t, session.ID)
		assert.Equal(t, models.StatusOpen, session.Status)

		got, err := store.GetSessionByCode(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
		assert.Equal(t, "Friday dinner", lo.FromPtr(got.DisplayName))
		assert.Nil(t, got.CreatorUserID)
		assert.True(t, decimal.RequireFromString("12.5").Equal(got.TipPercent))
	})

	t.Run("code lookup is case sensitive", func(t *testing.T) {
		_, err := store.GetSessionByCode(ctx, "abc123")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		err := store.CreateSession(ctx, &models.Session{Code: "ABC123", TipPercent: decimal.Zero})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("creator must exist", func(t *testing.T) {
		err := store.CreateSession(ctx, &models.Session{
			Code: "NOUSER", CreatorUserID: lo.ToPtr(int64(424242)), TipPercent: decimal.Zero,
		})
		assert.ErrorIs(t, err, storage.ErrReference)
	})

	t.Run("create with creator inserts both", func(t *testing.T) {
		session := &models.Session{Code: "WITHME", TipPercent: decimal.Zero}
		creator := &models.Participant{GuestName: lo.ToPtr("Host")}
		require.NoError(t, store.CreateSessionWithCreator(ctx, session, creator))
		assert.NotZero(t, session.ID)
		assert.NotZero(t, creator.ID)
		assert.Equal(t, session.ID, creator.SessionID)
		assert.Equal(t, "Host", creator.DisplayName)

		list, err := store.ListParticipantsBySession(ctx, session.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("failed creator rolls back session", func(t *testing.T) {
		session := &models.Session{Code: "ORPHAN", TipPercent: decimal.Zero}
		creator := &models.Participant{UserID: lo.ToPtr(int64(424242))}
		err := store.CreateSessionWithCreator(ctx, session, creator)
		assert.ErrorIs(t, err, storage.ErrReference)

		_, err = store.GetSessionByCode(ctx, "ORPHAN")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("update applies only set fields", func(t *testing.T) {
		session := mustSession(t, store, "UPD001")

		ok, err := store.UpdateSession(ctx, session.ID, models.SessionUpdate{
			TipPercent: lo.ToPtr(decimal.RequireFromString("15")),
		})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := store.GetSessionByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOpen, got.Status)
		assert.True(t, decimal.RequireFromString("15").Equal(got.TipPercent))

		ok, err = store.UpdateSession(ctx, session.ID, models.SessionUpdate{Status: lo.ToPtr("closed")})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err = store.GetSessionByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "closed", got.Status)
	})

	t.Run("update of missing session reports no rows", func(t *testing.T) {
		ok, err := store.UpdateSession(ctx, 9999, models.SessionUpdate{Status: lo.ToPtr("closed")})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		ok, err := store.UpdateSession(ctx, 1, models.SessionUpdate{})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestParticipants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("bob@example.com", "Bob", "hash")
	require.NoError(t, store.CreateUser(ctx, user))
	session := mustSession(t, store, "PART01")

	t.Run("user participant resolves display name", func(t *testing.T) {
		p := &models.Participant{SessionID: session.ID, UserID: lo.ToPtr(user.ID)}
		require.NoError(t, store.CreateParticipant(ctx, p))
		assert.NotZero(t, p.ID)
		assert.Equal(t, "Bob", p.DisplayName)
		assert.False(t, p.JoinedAt.IsZero())

		found, err := store.FindParticipantByUser(ctx, session.ID, user.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)
	})

	t.Run("same user twice conflicts", func(t *testing.T) {
		err := store.CreateParticipant(ctx, &models.Participant{SessionID: session.ID, UserID: lo.ToPtr(user.ID)})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("guest participant", func(t *testing.T) {
		p := mustGuest(t, store, session.ID, "Carol")
		assert.Equal(t, "Carol", p.DisplayName)

		found, err := store.FindParticipantByGuest(ctx, session.ID, "Carol")
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)

		_, err = store.FindParticipantByGuest(ctx, session.ID, "carol")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("same guest name twice conflicts", func(t *testing.T) {
		err := store.CreateParticipant(ctx, &models.Participant{SessionID: session.ID, GuestName: lo.ToPtr("Carol")})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("guest name reusable across sessions", func(t *testing.T) {
		other := mustSession(t, store, "PART02")
		p := mustGuest(t, store, other.ID, "Carol")
		assert.Equal(t, other.ID, p.SessionID)
	})

	t.Run("unknown session is a reference error", func(t *testing.T) {
		err := store.CreateParticipant(ctx, &models.Participant{SessionID: 9999, GuestName: lo.ToPtr("Dan")})
		assert.ErrorIs(t, err, storage.ErrReference)
	})

	t.Run("list in join order", func(t *testing.T) {
		list, err := store.ListParticipantsBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Bob", list[0].DisplayName)
		assert.Equal(t, "Carol", list[1].DisplayName)
	})

	t.Run("empty session lists nothing", func(t *testing.T) {
		empty := mustSession(t, store, "PART03")
		list, err := store.ListParticipantsBySession(ctx, empty.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := mustSession(t, store, "ITEM01")
	alice := mustGuest(t, store, session.ID, "Alice")
	bob := mustGuest(t, store, session.ID, "Bob")

	add := func(p *models.Participant, desc, amount string) *models.Item {
		item := &models.Item{ParticipantID: p.ID, Description: desc, Amount: decimal.RequireFromString(amount)}
		require.NoError(t, store.CreateItem(ctx, item))
		return item
	}

	pizza := add(alice, "Pizza", "12.50")
	add(bob, "Beer", "7.25")
	add(alice, "Coffee", "0.10")

	t.Run("create assigns id", func(t *testing.T) {
		assert.NotZero(t, pizza.ID)
		assert.False(t, pizza.RecordedAt.IsZero())
	})

	t.Run("list by participant", func(t *testing.T) {
		items, err := store.ListItemsByParticipant(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Pizza", items[0].Description)
		assert.Equal(t, "Coffee", items[1].Description)
	})

	t.Run("list by session groups by participant", func(t *testing.T) {
		items, err := store.ListItemsBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, items, 3)

		names := lo.Map(items, func(i *models.SessionItem, _ int) string { return i.ParticipantName })
		assert.Equal(t, []string{"Alice", "Alice", "Bob"}, names)
		assert.Equal(t, "ITEM01", items[0].SessionCode)
		assert.True(t, models.DefaultTipPercent.Equal(items[0].TipPercent))
	})

	t.Run("sums are exact", func(t *testing.T) {
		sum, err := store.SumItemsByParticipant(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "12.6", sum.String())

		sum, err = store.SumItemsBySession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "19.85", sum.String())
	})

	t.Run("empty sums are zero", func(t *testing.T) {
		empty := mustSession(t, store, "ITEM02")
		sum, err := store.SumItemsBySession(ctx, empty.ID)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())

		carol := mustGuest(t, store, empty.ID, "Carol")
		sum, err = store.SumItemsByParticipant(ctx, carol.ID)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("negative amount rejected by schema", func(t *testing.T) {
		err := store.CreateItem(ctx, &models.Item{
			ParticipantID: bob.ID, Description: "Refund", Amount: decimal.RequireFromString("-1"),
		})
		assert.Error(t, err)
	})

	t.Run("unknown participant is a reference error", func(t *testing.T) {
		err := store.CreateItem(ctx, &models.Item{ParticipantID: 9999, Description: "Ghost", Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, storage.ErrReference)
	})
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	store, err := New(path)
	require.NoError(t, err)
	session := &models.Session{Code: "KEEP01", TipPercent: decimal.Zero}
	require.NoError(t, store.CreateSession(context.Background(), session))
	require.NoError(t, store.Close())

	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetSessionByCode(context.Background(), "KEEP01")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}
