package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/repository"
)

func TestRedeemInvite(t *testing.T) {
	f := newFixture(t)
	owner := f.profile(t, "instructor")
	public := f.server(t, owner, true)
	private := f.server(t, owner, false)

	t.Run("public server admits immediately", func(t *testing.T) {
		student := f.profile(t, "ana")

		res, err := f.membership.RedeemInvite(f.ctx, public.InviteCode, student)
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, models.MemberStatusActive, res.Member.Status)
		assert.Equal(t, models.MemberRoleGuest, res.Member.Role)
		assert.Nil(t, res.Member.RequestedAt)
		assert.Equal(t, "/servers/"+public.ID, res.Route)
	})

	t.Run("private server queues for approval", func(t *testing.T) {
		student := f.profile(t, "ben")

		res, err := f.membership.RedeemInvite(f.ctx, private.InviteCode, student)
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, models.MemberStatusPending, res.Member.Status)
		require.NotNil(t, res.Member.RequestedAt)
		assert.Equal(t, f.now, *res.Member.RequestedAt)
		assert.Equal(t, "/servers/"+private.ID+"/pending", res.Route)
	})

	t.Run("existing member is routed by status without changes", func(t *testing.T) {
		student := f.profile(t, "cleo")
		rejected := f.join(t, private.ID, student, models.MemberRoleGuest, models.MemberStatusRejected)

		res, err := f.membership.RedeemInvite(f.ctx, private.InviteCode, student)
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.Equal(t, rejected.ID, res.Member.ID)
		assert.Equal(t, "/servers/"+private.ID+"/rejected", res.Route)

		again, err := f.repos.Members.GetByID(f.ctx, rejected.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MemberStatusRejected, again.Status)
	})

	t.Run("owner redeeming own invite lands in classroom", func(t *testing.T) {
		res, err := f.membership.RedeemInvite(f.ctx, private.InviteCode, owner)
		require.NoError(t, err)
		assert.False(t, res.Created)
		assert.Equal(t, "/servers/"+private.ID, res.Route)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := f.membership.RedeemInvite(f.ctx, "nope", f.profile(t, "dan"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := f.membership.RedeemInvite(f.ctx, public.InviteCode, "")
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

type racingMembers struct {
	repository.MemberRepository
	winner *models.Member
}

func (r *racingMembers) Create(ctx context.Context, m *models.Member) error {
	if w := r.winner; w != nil {
		r.winner = nil
		if err := r.MemberRepository.Create(ctx, w); err != nil {
			return err
		}
	}
	return r.MemberRepository.Create(ctx, m)
}

func TestRedeemInvite_ConcurrentRedemptionIsIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := f.profile(t, "instructor")
	server := f.server(t, owner, false)
	student := f.profile(t, "eve")

	winner := &models.Member{
		ID:        uuid.New().String(),
		ServerID:  server.ID,
		ProfileID: student,
		Role:      models.MemberRoleGuest,
		Status:    models.MemberStatusPending,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	f.repos.Members = &racingMembers{MemberRepository: f.repos.Members, winner: winner}
	f.rebuild()

	res, err := f.membership.RedeemInvite(f.ctx, server.InviteCode, student)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, winner.ID, res.Member.ID)
	assert.Equal(t, "/servers/"+server.ID+"/pending", res.Route)

	members, err := f.repos.Members.ListByServer(f.ctx, server.ID, models.MemberStatusPending)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestApproveThenAccessClassroom(t *testing.T) {
	f := newFixture(t)
	owner := f.profile(t, "instructor")
	server := f.server(t, owner, false)
	student := f.profile(t, "fay")

	res, err := f.membership.RedeemInvite(f.ctx, server.InviteCode, student)
	require.NoError(t, err)

	_, err = f.servers.GetClassroom(f.ctx, student, server.ID)
	var redirect *RedirectError
	require.True(t, errors.As(err, &redirect))
	assert.Equal(t, "/servers/"+server.ID+"/pending", redirect.Route)
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := f.membership.Approve(f.ctx, owner, server.ID, res.Member.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, owner, *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	classroom, err := f.servers.GetClassroom(f.ctx, student, server.ID)
	require.NoError(t, err)
	require.Len(t, classroom.Channels, 1)
	assert.Equal(t, models.DefaultChannelName, classroom.Channels[0].Name)
	assert.Equal(t, "GUEST", classroom.Role)
	assert.Empty(t, classroom.Server.InviteCode)
}

func TestApprove_Errors(t *testing.T) {
	f := newFixture(t)
	owner := f.profile(t, "instructor")
	server := f.server(t, owner, false)
	guest := f.join(t, server.ID, f.profile(t, "gil"), models.MemberRoleGuest, models.MemberStatusActive)
	pending := f.join(t, server.ID, f.profile(t, "hal"), models.MemberRoleGuest, models.MemberStatusPending)
	moderator := f.join(t, server.ID, f.profile(t, "ida"), models.MemberRoleModerator, models.MemberStatusActive)

	_, err := f.membership.Approve(f.ctx, guest.ProfileID, server.ID, pending.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.membership.Approve(f.ctx, moderator.ProfileID, server.ID, guest.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.membership.Approve(f.ctx, moderator.ProfileID, server.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.membership.Approve(f.ctx, moderator.ProfileID, server.ID, pending.ID)
	assert.NoError(t, err)
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	owner := f.profile(t, "instructor")
	server := f.server(t, owner, true)
	ownerMember, err := f.repos.Members.GetByServerAndProfile(f.ctx, server.ID, owner)
	require.NoError(t, err)
	student := f.join(t, server.ID, f.profile(t, "jo"), models.MemberRoleGuest, models.MemberStatusActive)

	_, err = f.membership.Reject(f.ctx, owner, server.ID, ownerMember.ID, "")
	assert.ErrorIs(t, err, ErrOwnerProtected)

	rejected, err := f.membership.Reject(f.ctx, owner, server.ID, student.ID, "  spam  ")
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectReason)
	assert.Equal(t, "spam", *rejected.RejectReason)
	require.NotNil(t, rejected.RejectedAt)

	_, err = f.membership.Reject(f.ctx, owner, server.ID, student.ID, "")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.membership.RequireActive(f.ctx, student.ProfileID, server.ID)
	var redirect *RedirectError
	require.True(t, errors.As(err, &redirect))
	assert.Equal(t, "/servers/"+server.ID+"/rejected", redirect.Route)
}

func TestReject_ModeratorCannotRejectAdmin(t *testing.T) {
	f := newFixture(t)
	owner := f.profile(t, "instructor")
	server := f.server(t, owner, true)
	moderator := f.join(t, server.ID, f.profile(t, "mod"), models.MemberRoleModerator, models.MemberStatusActive)
	coAdmin := f.join(t, server.ID, f.profile(t, "co-admin"), models.MemberRoleAdmin, models.MemberStatusActive)
	peer := f.join(t, server.ID, f.profile(t, "peer"), models.MemberRoleModerator, models.MemberStatusActive)

	_, err := f.membership.Reject(f.ctx, moderator.ProfileID, server.ID, coAdmin.ID, "")
	assert.ErrorIs(t, err, ErrInsufficientRole)

	stored, err := f.repos.Members.GetByID(f.ctx, coAdmin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, stored.Status)

	_, err = f.membership.RequireActive(f.ctx, coAdmin.ProfileID, server.ID)
	assert.NoError(t, err)

	rejected, err := f.membership.Reject(f.ctx, moderator.ProfileID, server.ID, peer.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusRejected, rejected.Status)

	rejected, err = f.membership.Reject(f.ctx, owner, server.ID, coAdmin.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusRejected, rejected.Status)
}

func TestRequireActive(t *testing.T) {
	f := newFixture(t)
	owner := f.profile(t, "instructor")
	server := f.server(t, owner, false)

	_, err := f.membership.RequireActive(f.ctx, "", server.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.membership.RequireActive(f.ctx, owner, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.membership.RequireActive(f.ctx, f.profile(t, "stranger"), server.ID)
	assert.ErrorIs(t, err, ErrNotMember)

	member, err := f.membership.RequireActive(f.ctx, owner, server.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleAdmin, member.Role)
}

func TestAddRemoveLeave(t *testing.T) {
	f := newFixture(t)
	owner := f.profile(t, "instructor")
	server := f.server(t, owner, false)
	moderator := f.join(t, server.ID, f.profile(t, "mod"), models.MemberRoleModerator, models.MemberStatusActive)
	newcomer := f.profile(t, "kai")

	_, err := f.membership.AddMember(f.ctx, moderator.ProfileID, server.ID, &models.AddMemberRequest{ProfileID: newcomer, Role: "ADMIN"})
	assert.ErrorIs(t, err, ErrInsufficientRole)

	added, err := f.membership.AddMember(f.ctx, moderator.ProfileID, server.ID, &models.AddMemberRequest{ProfileID: newcomer})
	require.NoError(t, err)
	assert.Equal(t, models.MemberStatusActive, added.Status)
	assert.Equal(t, models.MemberRoleGuest, added.Role)

	_, err = f.membership.AddMember(f.ctx, owner, server.ID, &models.AddMemberRequest{ProfileID: newcomer})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.membership.AddMember(f.ctx, owner, server.ID, &models.AddMemberRequest{ProfileID: uuid.New().String()})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.membership.AddMember(f.ctx, owner, server.ID, &models.AddMemberRequest{ProfileID: "not-a-uuid"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	ownerMember, err := f.repos.Members.GetByServerAndProfile(f.ctx, server.ID, owner)
	require.NoError(t, err)
	assert.ErrorIs(t, f.membership.RemoveMember(f.ctx, moderator.ProfileID, server.ID, ownerMember.ID), ErrOwnerProtected)
	assert.ErrorIs(t, f.membership.Leave(f.ctx, owner, server.ID), ErrOwnerProtected)

	require.NoError(t, f.membership.RemoveMember(f.ctx, moderator.ProfileID, server.ID, added.ID))
	gone, err := f.repos.Members.GetByID(f.ctx, added.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	require.NoError(t, f.membership.Leave(f.ctx, moderator.ProfileID, server.ID))
	assert.ErrorIs(t, f.membership.Leave(f.ctx, moderator.ProfileID, server.ID), ErrNotMember)
}

func TestUpdateRoleAndListMembers(t *testing.T) {
	f := newFixture(t)
	owner := f.profile(t, "instructor")
	server := f.server(t, owner, false)
	guest := f.join(t, server.ID, f.profile(t, "lia"), models.MemberRoleGuest, models.MemberStatusActive)
	f.join(t, server.ID, f.profile(t, "max"), models.MemberRoleGuest, models.MemberStatusPending)

	_, err := f.membership.UpdateRole(f.ctx, guest.ProfileID, server.ID, guest.ID, &models.UpdateRoleRequest{Role: "ADMIN"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.membership.UpdateRole(f.ctx, owner, server.ID, guest.ID, &models.UpdateRoleRequest{Role: "OWNER"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := f.membership.UpdateRole(f.ctx, owner, server.ID, guest.ID, &models.UpdateRoleRequest{Role: "MODERATOR"})
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleModerator, updated.Role)

	pending, err := f.membership.ListMembers(f.ctx, guest.ProfileID, server.ID, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "max", pending[0].ProfileName)

	all, err := f.membership.ListMembers(f.ctx, owner, server.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.membership.ListMembers(f.ctx, owner, server.ID, "banned")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
