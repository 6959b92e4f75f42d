package mailing

import (
	"context"
	"testing"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSyncHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("team change syncs the participant", func(t *testing.T) {
		f, svc, list := newSyncService(t)
		team := f.AddTeam(t, "Pedálníci")
		_, ua := f.AddMember(t, team, "jan@example.com", true)
		h := NewSyncHandler(svc, zap.NewNop())

		require.NoError(t, h.Handle(ctx, attendance.NewTeamMembershipChangedEvent(ua, nil)))

		require.Len(t, list.subscribed, 1)
		assert.Equal(t, "jan@example.com", list.subscribed[0].Email)
		assert.Equal(t, "Pedálníci", list.subscribed[0].Fields["team"])
	})

	t.Run("list failures are swallowed", func(t *testing.T) {
		f, svc, list := newSyncService(t)
		list.failFor = "eva@example.com"
		_, ua := f.AddUser(t, "eva@example.com")
		h := NewSyncHandler(svc, zap.NewNop())

		assert.NoError(t, h.Handle(ctx, attendance.NewTeamMembershipChangedEvent(ua, nil)))
		assert.Empty(t, list.subscribed)
	})

	t.Run("other events are ignored", func(t *testing.T) {
		f, svc, list := newSyncService(t)
		user, _ := f.AddUser(t, "petr@example.com")
		h := NewSyncHandler(svc, zap.NewNop())

		assert.NoError(t, h.Handle(ctx, identity.NewUserRegisteredEvent(user)))
		assert.Empty(t, list.subscribed)
	})
}

func TestSyncHandler_EventTypes(t *testing.T) {
	h := NewSyncHandler(nil, zap.NewNop())
	assert.Contains(t, h.EventTypes(), attendance.EventTypeTeamMembershipChanged)
	assert.Len(t, h.EventTypes(), 2)
}
