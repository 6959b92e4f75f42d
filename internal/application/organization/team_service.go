package organization

import (
	"context"
	"errors"
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/infrastructure/email"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TeamRepositories groups the repositories the team service works with
type TeamRepositories struct {
	Campaigns    campaign.CampaignRepository
	Cities       campaign.CityRepository
	Subsidiaries organization.SubsidiaryRepository
	Teams        organization.TeamRepository
	Attendances  attendance.UserAttendanceRepository
	Users        identity.UserRepository
}

// TeamService forms teams and decides about their members
type TeamService struct {
	repos     TeamRepositories
	tx        shared.Transactor
	publisher shared.EventPublisher
	postman   *email.Postman
	logger    *zap.Logger
	now       func() time.Time
}

// NewTeamService creates a new team service
func NewTeamService(
	repos TeamRepositories,
	tx shared.Transactor,
	publisher shared.EventPublisher,
	postman *email.Postman,
	logger *zap.Logger,
) *TeamService {
	return &TeamService{
		repos:     repos,
		tx:        tx,
		publisher: publisher,
		postman:   postman,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateTeam founds a team in a subsidiary; the founder becomes its first,
// approved member
func (s *TeamService) CreateTeam(ctx context.Context, campaignID, userID uuid.UUID, input CreateTeamInput) (*TeamResponse, error) {
	c, err := s.openCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	sub, err := s.repos.Subsidiaries.FindByID(ctx, input.SubsidiaryID)
	if err != nil {
		return nil, err
	}
	city, err := s.repos.Cities.FindByID(ctx, sub.CityID)
	if err != nil {
		return nil, err
	}
	if !sub.Active || !city.InCampaign(campaignID) {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "The subsidiary does not take part in this campaign")
	}

	_, err = s.repos.Teams.FindByName(ctx, campaignID, input.Name)
	if err == nil {
		return nil, shared.NewDomainError(shared.ErrAlreadyExists.Code, "A team with this name already exists")
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	team, err := organization.NewTeam(campaignID, sub.ID, input.Name)
	if err != nil {
		return nil, err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repos.Teams.Save(ctx, team); err != nil {
			return err
		}
		oldTeamID := ua.TeamID
		if err := ua.JoinTeam(team, 0, c.MaxTeamMembers); err != nil {
			return err
		}
		if err := s.repos.Attendances.Save(ctx, ua); err != nil {
			return err
		}
		if err := s.recountByID(ctx, oldTeamID); err != nil {
			return err
		}
		if err := s.recount(ctx, team); err != nil {
			return err
		}
		return s.publishAndClear(ctx, &ua.BaseAggregateRoot)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Team created",
		zap.String("team_id", team.ID.String()),
		zap.String("name", team.Name))

	resp := ToTeamResponse(team, c.MaxTeamMembers)
	resp.InvitationToken = team.InvitationToken
	return &resp, nil
}

// ListTeams lists the teams of a campaign, optionally of one subsidiary
func (s *TeamService) ListTeams(ctx context.Context, campaignID uuid.UUID, filter TeamFilter) (shared.Paginated[TeamResponse], error) {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return shared.Paginated[TeamResponse]{}, err
	}

	var teams []organization.Team
	var total int64
	if filter.SubsidiaryID != nil {
		teams, err = s.repos.Teams.FindBySubsidiary(ctx, campaignID, *filter.SubsidiaryID)
		total = int64(len(teams))
	} else {
		teams, total, err = s.repos.Teams.FindByCampaign(ctx, campaignID, filter.Filter)
	}
	if err != nil {
		return shared.Paginated[TeamResponse]{}, err
	}

	items := make([]TeamResponse, len(teams))
	for i := range teams {
		items[i] = ToTeamResponse(&teams[i], c.MaxTeamMembers)
	}
	return shared.NewPaginated(items, total, filter.Filter), nil
}

// MyTeam returns the team of the user with its members
func (s *TeamService) MyTeam(ctx context.Context, campaignID, userID uuid.UUID) (*TeamDetail, error) {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if ua.TeamID == nil {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "You are not a member of any team")
	}
	team, err := s.repos.Teams.FindByID(ctx, *ua.TeamID)
	if err != nil {
		return nil, err
	}
	members, err := s.repos.Attendances.FindByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	userIDs := make([]uuid.UUID, len(members))
	for i := range members {
		userIDs[i] = members[i].UserID
	}
	users, err := s.repos.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for i := range users {
		names[users[i].ID] = users[i].DisplayName()
	}

	detail := &TeamDetail{TeamResponse: ToTeamResponse(team, c.MaxTeamMembers)}
	if ua.IsApprovedTeamMember() {
		detail.InvitationToken = team.InvitationToken
	}
	for i := range members {
		detail.Members = append(detail.Members, MemberResponse{
			AttendanceID: members[i].ID,
			Name:         names[members[i].UserID],
			Approved:     members[i].ApprovedForTeam,
			TripLength:   members[i].TripLengthTotal,
			Frequency:    members[i].Frequency,
		})
	}
	return detail, nil
}

// JoinTeam moves the user to the team given by id or invitation token. The
// first member of a team is approved right away, others wait for approval.
func (s *TeamService) JoinTeam(ctx context.Context, campaignID, userID uuid.UUID, input JoinTeamInput) (*TeamResponse, error) {
	c, err := s.openCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	teamID, err := s.resolveTeam(ctx, input)
	if err != nil {
		return nil, err
	}

	var team *organization.Team
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		locked, err := s.repos.Teams.FindByIDForUpdate(ctx, teamID)
		if err != nil {
			return err
		}
		team = locked
		if team.CampaignID != campaignID {
			return shared.ErrNotFound
		}
		exclude := ua.ID
		approved, err := s.repos.Attendances.CountApprovedMembers(ctx, team.ID, &exclude)
		if err != nil {
			return err
		}
		oldTeamID := ua.TeamID
		if err := ua.JoinTeam(team, approved, c.MaxTeamMembers); err != nil {
			return err
		}
		if err := s.repos.Attendances.Save(ctx, ua); err != nil {
			return err
		}
		if oldTeamID != nil && *oldTeamID != team.ID {
			if err := s.recountByID(ctx, oldTeamID); err != nil {
				return err
			}
		}
		if err := s.recount(ctx, team); err != nil {
			return err
		}
		return s.publishAndClear(ctx, &ua.BaseAggregateRoot)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User joined team",
		zap.String("user_attendance_id", ua.ID.String()),
		zap.String("team_id", team.ID.String()),
		zap.String("approval", string(ua.ApprovedForTeam)))

	resp := ToTeamResponse(team, c.MaxTeamMembers)
	return &resp, nil
}

func (s *TeamService) resolveTeam(ctx context.Context, input JoinTeamInput) (uuid.UUID, error) {
	if input.InvitationToken != "" {
		team, err := s.repos.Teams.FindByInvitationToken(ctx, input.InvitationToken)
		if err != nil {
			return uuid.Nil, err
		}
		return team.ID, nil
	}
	if input.TeamID != nil {
		return *input.TeamID, nil
	}
	return uuid.Nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Either team_id or invitation_token is required")
}

// LeaveTeam drops the team link of the user
func (s *TeamService) LeaveTeam(ctx context.Context, campaignID, userID uuid.UUID) error {
	if _, err := s.openCampaign(ctx, campaignID); err != nil {
		return err
	}
	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return err
	}

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		oldTeamID := ua.TeamID
		if err := ua.LeaveTeam(); err != nil {
			return err
		}
		if err := s.repos.Attendances.Save(ctx, ua); err != nil {
			return err
		}
		if err := s.recountByID(ctx, oldTeamID); err != nil {
			return err
		}
		return s.publishAndClear(ctx, &ua.BaseAggregateRoot)
	})
}

// ApproveMember lets an approved member of the team accept memberID
func (s *TeamService) ApproveMember(ctx context.Context, campaignID, userID, memberID uuid.UUID) error {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return err
	}
	approver, member, err := s.decisionParties(ctx, campaignID, userID, memberID)
	if err != nil {
		return err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		team, err := s.repos.Teams.FindByIDForUpdate(ctx, *member.TeamID)
		if err != nil {
			return err
		}
		exclude := member.ID
		approved, err := s.repos.Attendances.CountApprovedMembers(ctx, team.ID, &exclude)
		if err != nil {
			return err
		}
		if err := member.ApproveBy(approver, approved, c.MaxTeamMembers); err != nil {
			return err
		}
		if err := s.repos.Attendances.Save(ctx, member); err != nil {
			return err
		}
		if err := s.recount(ctx, team); err != nil {
			return err
		}
		return s.publishAndClear(ctx, &member.BaseAggregateRoot)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Team member approved",
		zap.String("user_attendance_id", member.ID.String()),
		zap.String("approver_id", approver.ID.String()))
	return nil
}

// DenyMember lets an approved member of the team reject memberID
func (s *TeamService) DenyMember(ctx context.Context, campaignID, userID, memberID uuid.UUID) error {
	approver, member, err := s.decisionParties(ctx, campaignID, userID, memberID)
	if err != nil {
		return err
	}

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		oldTeamID := member.TeamID
		if err := member.DenyBy(approver); err != nil {
			return err
		}
		if err := s.repos.Attendances.Save(ctx, member); err != nil {
			return err
		}
		if err := s.recountByID(ctx, oldTeamID); err != nil {
			return err
		}
		return s.publishAndClear(ctx, &member.BaseAggregateRoot)
	})
}

func (s *TeamService) decisionParties(ctx context.Context, campaignID, userID, memberID uuid.UUID) (*attendance.UserAttendance, *attendance.UserAttendance, error) {
	approver, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return nil, nil, err
	}
	member, err := s.repos.Attendances.FindByID(ctx, memberID)
	if err != nil {
		return nil, nil, err
	}
	if member.CampaignID != campaignID {
		return nil, nil, shared.ErrNotFound
	}
	if member.TeamID == nil {
		return nil, nil, shared.NewDomainError(shared.ErrInvalidState.Code, "The participant is not in a team")
	}
	return approver, member, nil
}

// RegenerateInvitationToken invalidates the invitation link of the user's
// team and returns the new token
func (s *TeamService) RegenerateInvitationToken(ctx context.Context, campaignID, userID uuid.UUID) (string, error) {
	team, _, err := s.memberTeam(ctx, campaignID, userID)
	if err != nil {
		return "", err
	}
	if err := team.RegenerateInvitationToken(); err != nil {
		return "", err
	}
	if err := s.repos.Teams.Save(ctx, team); err != nil {
		return "", err
	}
	return team.InvitationToken, nil
}

// Invite e-mails the invitation link of the user's team to colleagues
func (s *TeamService) Invite(ctx context.Context, campaignID, userID uuid.UUID, input InviteInput) error {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return err
	}
	team, _, err := s.memberTeam(ctx, campaignID, userID)
	if err != nil {
		return err
	}
	inviter, err := s.repos.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	composer := s.postman.Composer(c.Name)
	for _, addr := range input.Emails {
		msg, err := composer.TeamInvitation(email.Address{Email: addr}, inviter.DisplayName(), team.Name, team.InvitationToken)
		s.postman.Deliver(ctx, msg, err)
	}
	s.logger.Info("Team invitations sent",
		zap.String("team_id", team.ID.String()),
		zap.Int("count", len(input.Emails)))
	return nil
}

func (s *TeamService) memberTeam(ctx context.Context, campaignID, userID uuid.UUID) (*organization.Team, *attendance.UserAttendance, error) {
	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !ua.IsApprovedTeamMember() {
		return nil, nil, shared.NewDomainError(shared.ErrForbidden.Code, "Only approved team members can invite colleagues")
	}
	team, err := s.repos.Teams.FindByID(ctx, *ua.TeamID)
	if err != nil {
		return nil, nil, err
	}
	return team, ua, nil
}

func (s *TeamService) openCampaign(ctx context.Context, campaignID uuid.UUID) (*campaign.Campaign, error) {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := c.RequirePhase(campaign.PhaseEntryEnabled, s.now()); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *TeamService) recountByID(ctx context.Context, teamID *uuid.UUID) error {
	if teamID == nil {
		return nil
	}
	team, err := s.repos.Teams.FindByID(ctx, *teamID)
	if err != nil {
		return err
	}
	return s.recount(ctx, team)
}

// recount refreshes the cached member numbers of team
func (s *TeamService) recount(ctx context.Context, team *organization.Team) error {
	members, err := s.repos.Attendances.FindByTeam(ctx, team.ID)
	if err != nil {
		return err
	}
	approved, unapproved := 0, 0
	for i := range members {
		if members[i].ApprovedForTeam == organization.ApprovalApproved {
			approved++
		} else {
			unapproved++
		}
	}
	team.SetMemberCounts(approved, unapproved)
	return s.repos.Teams.Save(ctx, team)
}

func (s *TeamService) publishAndClear(ctx context.Context, roots ...*shared.BaseAggregateRoot) error {
	for _, root := range roots {
		if err := s.publisher.Publish(ctx, root.GetDomainEvents()...); err != nil {
			return err
		}
		root.ClearDomainEvents()
	}
	return nil
}
