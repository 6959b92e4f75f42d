package mailing

import (
	"context"
	"errors"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	maillist "github.com/dpnk/backend/internal/infrastructure/mailing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBatchSize is the page of attendances synced per query
const DefaultBatchSize = 200

// Repositories groups the stores the mailing sync reads
type Repositories struct {
	Campaigns    campaign.CampaignRepository
	Cities       campaign.CityRepository
	Attendances  attendance.UserAttendanceRepository
	Users        identity.UserRepository
	Teams        organization.TeamRepository
	Subsidiaries organization.SubsidiaryRepository
}

// SyncReport summarizes one sync run
type SyncReport struct {
	Checked      int `json:"checked"`
	Subscribed   int `json:"subscribed"`
	Unsubscribed int `json:"unsubscribed"`
	Unchanged    int `json:"unchanged"`
	Failed       int `json:"failed"`
}

// SyncService keeps the campaign mailing lists in line with the participants
type SyncService struct {
	repos     Repositories
	client    maillist.ListClient
	batchSize int
	logger    *zap.Logger
}

// NewSyncService creates a new mailing sync service
func NewSyncService(repos Repositories, client maillist.ListClient, batchSize int, logger *zap.Logger) *SyncService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &SyncService{repos: repos, client: client, batchSize: batchSize, logger: logger}
}

// Sync is the mailing_sync job: it syncs one campaign, or every active
// campaign when campaignID is nil
func (s *SyncService) Sync(ctx context.Context, campaignID *uuid.UUID) error {
	var campaigns []campaign.Campaign
	if campaignID != nil {
		c, err := s.repos.Campaigns.FindByID(ctx, *campaignID)
		if err != nil {
			return err
		}
		campaigns = append(campaigns, *c)
	} else {
		active, err := s.repos.Campaigns.FindActive(ctx)
		if err != nil {
			return err
		}
		campaigns = active
	}

	var firstErr error
	for i := range campaigns {
		report, err := s.SyncCampaign(ctx, &campaigns[i])
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if report != nil {
			s.logger.Info("Mailing list synced",
				zap.String("campaign", campaigns[i].Slug),
				zap.Int("checked", report.Checked),
				zap.Int("subscribed", report.Subscribed),
				zap.Int("unsubscribed", report.Unsubscribed),
				zap.Int("unchanged", report.Unchanged),
				zap.Int("failed", report.Failed))
		}
	}
	return firstErr
}

// SyncCampaign walks all attendances of the campaign. A failing subscriber
// is logged and counted; the walk continues.
func (s *SyncService) SyncCampaign(ctx context.Context, c *campaign.Campaign) (*SyncReport, error) {
	report := &SyncReport{}
	if !c.MailingListEnabled || c.MailingListID == "" {
		return report, nil
	}

	r := newResolver(s.repos)
	var lastErr error
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		items, total, err := s.repos.Attendances.FindAll(ctx, c.ID, attendance.Filter{
			Filter: shared.Filter{Page: page, PageSize: s.batchSize, OrderBy: "created_at"},
		})
		if err != nil {
			return report, err
		}
		for i := range items {
			report.Checked++
			outcome, err := s.sync(ctx, c, &items[i], r)
			switch {
			case err != nil:
				report.Failed++
				lastErr = err
				s.logger.Warn("Mailing sync failed",
					zap.String("user_attendance_id", items[i].ID.String()),
					zap.Error(err))
			case outcome == outcomeSubscribed:
				report.Subscribed++
			case outcome == outcomeUnsubscribed:
				report.Unsubscribed++
			default:
				report.Unchanged++
			}
		}
		if len(items) == 0 || int64(page*s.batchSize) >= total {
			break
		}
	}
	if report.Failed > 0 {
		return report, lastErr
	}
	return report, nil
}

// SyncAttendance syncs one participant right away
func (s *SyncService) SyncAttendance(ctx context.Context, userAttendanceID uuid.UUID) error {
	ua, err := s.repos.Attendances.FindByID(ctx, userAttendanceID)
	if err != nil {
		return err
	}
	c, err := s.repos.Campaigns.FindByID(ctx, ua.CampaignID)
	if err != nil {
		return err
	}
	if !c.MailingListEnabled || c.MailingListID == "" {
		return nil
	}
	_, err = s.sync(ctx, c, ua, newResolver(s.repos))
	return err
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeSubscribed
	outcomeUnsubscribed
)

func (s *SyncService) sync(ctx context.Context, c *campaign.Campaign, ua *attendance.UserAttendance, r *resolver) (outcome, error) {
	user, err := s.repos.Users.FindByID(ctx, ua.UserID)
	if err != nil {
		return outcomeUnchanged, err
	}

	if user.Status == identity.UserStatusDeactivated {
		if user.Profile.MailingID == "" {
			return outcomeUnchanged, nil
		}
		if err := s.client.Unsubscribe(ctx, c.MailingListID, user.Email); err != nil {
			return outcomeUnchanged, err
		}
		user.RecordMailingSync("", "")
		return outcomeUnsubscribed, s.repos.Users.Update(ctx, user)
	}

	sub, err := r.subscriber(ctx, c, ua, user)
	if err != nil {
		return outcomeUnchanged, err
	}
	hash := sub.Hash()
	if hash == user.Profile.MailingHash {
		return outcomeUnchanged, nil
	}
	id, err := s.client.Subscribe(ctx, c.MailingListID, sub)
	if err != nil {
		return outcomeUnchanged, err
	}
	if id == "" {
		id = user.Profile.MailingID
	}
	user.RecordMailingSync(id, hash)
	return outcomeSubscribed, s.repos.Users.Update(ctx, user)
}

// resolver memoizes the team and city names of one run
type resolver struct {
	repos  Repositories
	teams  map[uuid.UUID]*organization.Team
	cities map[uuid.UUID]string
}

func newResolver(repos Repositories) *resolver {
	return &resolver{
		repos:  repos,
		teams:  make(map[uuid.UUID]*organization.Team),
		cities: make(map[uuid.UUID]string),
	}
}

func (r *resolver) subscriber(ctx context.Context, c *campaign.Campaign, ua *attendance.UserAttendance, user *identity.User) (maillist.Subscriber, error) {
	fields := map[string]string{
		"campaign":       c.Slug,
		"payment_status": string(ua.PaymentStatus),
		"language":       string(user.Profile.Language),
		"team":           "",
		"city":           "",
	}
	if ua.TeamID != nil {
		team, err := r.team(ctx, *ua.TeamID)
		if err != nil {
			return maillist.Subscriber{}, err
		}
		fields["team"] = team.Name
		city, err := r.city(ctx, team.SubsidiaryID)
		if err != nil {
			return maillist.Subscriber{}, err
		}
		fields["city"] = city
	}
	return maillist.Subscriber{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Fields:    fields,
	}, nil
}

func (r *resolver) team(ctx context.Context, id uuid.UUID) (*organization.Team, error) {
	if t, ok := r.teams[id]; ok {
		return t, nil
	}
	t, err := r.repos.Teams.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.teams[id] = t
	return t, nil
}

func (r *resolver) city(ctx context.Context, subsidiaryID uuid.UUID) (string, error) {
	if name, ok := r.cities[subsidiaryID]; ok {
		return name, nil
	}
	sub, err := r.repos.Subsidiaries.FindByID(ctx, subsidiaryID)
	if err != nil {
		return "", err
	}
	city, err := r.repos.Cities.FindByID(ctx, sub.CityID)
	if errors.Is(err, shared.ErrNotFound) {
		r.cities[subsidiaryID] = ""
		return "", nil
	}
	if err != nil {
		return "", err
	}
	r.cities[subsidiaryID] = city.Name
	return city.Name, nil
}
