package service

import (
	"context"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/cobill/internal/apperr"
	"github.com/mmynk/cobill/internal/models"
	"github.com/mmynk/cobill/internal/realtime"
)

func TestParticipantService_Join(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.mustSession(t, "")

	t.Run("guest joins once", func(t *testing.T) {
		env.rec.Reset()
		first, gotSession, created, err := env.participants.Join(ctx, JoinParams{Code: session.Code, GuestName: lo.ToPtr("Carol")})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, session.ID, gotSession.ID)
		assert.Equal(t, "Carol", first.DisplayName)

		second, _, created, err := env.participants.Join(ctx, JoinParams{Code: session.Code, GuestName: lo.ToPtr("Carol")})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)

		list, err := env.participants.ListBySession(ctx, session.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		assert.Equal(t, []string{realtime.EventParticipantJoined, realtime.EventParticipantJoined}, env.rec.Types())
		payload := env.rec.Events()[1].Payload.(ParticipantJoinedEvent)
		assert.Equal(t, session.ID, payload.SessionID)
		assert.Equal(t, first.ID, payload.Participant.ID)
	})

	t.Run("registered user joins once", func(t *testing.T) {
		user := env.mustUser(t, "dave@example.com", "Dave")
		first, _, created, err := env.participants.Join(ctx, JoinParams{Code: session.Code, UserID: lo.ToPtr(user.ID)})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "Dave", first.DisplayName)

		second, _, created, err := env.participants.Join(ctx, JoinParams{Code: session.Code, UserID: lo.ToPtr(user.ID)})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("guest name matching a user's display name is a separate participant", func(t *testing.T) {
		p, _, created, err := env.participants.Join(ctx, JoinParams{Code: session.Code, GuestName: lo.ToPtr("Dave")})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Nil(t, p.UserID)
	})

	t.Run("validation", func(t *testing.T) {
		_, _, _, err := env.participants.Join(ctx, JoinParams{GuestName: lo.ToPtr("Eve")})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, _, _, err = env.participants.Join(ctx, JoinParams{Code: session.Code})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, _, _, err = env.participants.Join(ctx, JoinParams{Code: session.Code, GuestName: lo.ToPtr("   ")})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("unknown code", func(t *testing.T) {
		_, _, _, err := env.participants.Join(ctx, JoinParams{Code: "ZZZZZZ", GuestName: lo.ToPtr("Eve")})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, _, err := env.participants.Join(ctx, JoinParams{Code: session.Code, UserID: lo.ToPtr(int64(9999))})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestParticipantService_ConcurrentJoinIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	session := env.mustSession(t, "")

	const n = 8
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, _, _, err := env.participants.Join(context.Background(), JoinParams{Code: session.Code, GuestName: lo.ToPtr("Frank")})
			if assert.NoError(t, err) {
				ids[i] = p.ID
			}
		}()
	}
	wg.Wait()

	assert.Len(t, lo.Uniq(ids), 1)
	list, err := env.participants.ListBySession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestParticipantService_Lookup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.mustSession(t, "")
	a := env.mustGuest(t, session, "Ann")
	env.mustGuest(t, session, "Ben")

	list, err := env.participants.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann", "Ben"}, lo.Map(list, func(p *models.Participant, _ int) string { return p.DisplayName }))

	got, err := env.participants.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.DisplayName)

	_, err = env.participants.GetByID(ctx, 9999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	empty, err := env.participants.ListBySession(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
