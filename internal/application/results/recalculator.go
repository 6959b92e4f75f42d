package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpnk/backend/internal/domain/attendance"
	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/identity"
	"github.com/dpnk/backend/internal/domain/organization"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repositories groups the stores the results engine reads and writes
type Repositories struct {
	Campaigns    campaign.CampaignRepository
	Competitions competition.CompetitionRepository
	Results      competition.ResultRepository
	Questions    competition.QuestionRepository
	Answers      competition.AnswerRepository
	Attendances  attendance.UserAttendanceRepository
	Teams        organization.TeamRepository
	Companies    organization.CompanyRepository
	Subsidiaries organization.SubsidiaryRepository
	Users        identity.UserRepository
	Trips        trip.TripRepository
}

// Recalculator recomputes competition results and the derived ride
// statistics of attendances
type Recalculator struct {
	repos  Repositories
	cache  competition.ResultsCache
	logger *zap.Logger
	now    func() time.Time
}

// NewRecalculator creates a new recalculator
func NewRecalculator(repos Repositories, cache competition.ResultsCache, logger *zap.Logger) *Recalculator {
	return &Recalculator{
		repos:  repos,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// touched collects the competitions whose results changed so their cached
// pages can be dropped once
type touched map[uuid.UUID]competition.Type

func (r *Recalculator) invalidate(ctx context.Context, t touched) {
	for id := range t {
		if err := r.cache.Invalidate(ctx, id); err != nil {
			r.logger.Warn("Failed to invalidate results cache",
				zap.String("competition_id", id.String()),
				zap.Error(err))
		}
	}
}

// RecalculateResult recomputes the result of one competitor. Competitors
// without any admitted member lose their result.
func (r *Recalculator) RecalculateResult(ctx context.Context, comp *competition.Competition, ref competition.CompetitorRef) error {
	c, err := r.repos.Campaigns.FindByID(ctx, comp.CampaignID)
	if err != nil {
		return err
	}
	t := touched{}
	if err := r.recalculate(ctx, c, comp, ref, newResolver(r.repos), t); err != nil {
		return err
	}
	r.invalidate(ctx, t)
	return nil
}

// RecalculateForUserAttendance refreshes the ride statistics of the
// attendance and every result it contributes to: its own, its team's and its
// company's
func (r *Recalculator) RecalculateForUserAttendance(ctx context.Context, userAttendanceID uuid.UUID) error {
	t := touched{}
	if err := r.recalculateAttendance(ctx, userAttendanceID, newResolver(r.repos), t); err != nil {
		return err
	}
	r.invalidate(ctx, t)
	return nil
}

// RecalculateTeam recounts the members of a team and recomputes the results
// of the team, its members and its company
func (r *Recalculator) RecalculateTeam(ctx context.Context, teamID uuid.UUID) error {
	t := touched{}
	if err := r.recalculateTeam(ctx, teamID, newResolver(r.repos), t); err != nil {
		return err
	}
	r.invalidate(ctx, t)
	return nil
}

// RecalculateCompetition recomputes every competitor of a competition that
// may hold a result. Used after an admin changes competition settings.
func (r *Recalculator) RecalculateCompetition(ctx context.Context, comp *competition.Competition) error {
	c, err := r.repos.Campaigns.FindByID(ctx, comp.CampaignID)
	if err != nil {
		return err
	}
	refs := make(map[competition.CompetitorRef]struct{})
	existing, err := r.repos.Results.FindAllByCompetition(ctx, comp.ID)
	if err != nil {
		return err
	}
	for i := range existing {
		refs[existing[i].Competitor()] = struct{}{}
	}

	res := newResolver(r.repos)
	var page int64 = 1
	for {
		items, total, err := r.repos.Attendances.FindAll(ctx, c.ID, attendance.Filter{
			Filter: shared.Filter{Page: int(page), PageSize: 500},
		})
		if err != nil {
			return err
		}
		for i := range items {
			cand, err := res.candidate(ctx, &items[i])
			if err != nil {
				return err
			}
			if ref, ok := competitorOf(comp, &items[i], cand.CompanyID); ok {
				refs[ref] = struct{}{}
			}
		}
		if page*500 >= total || len(items) == 0 {
			break
		}
		page++
	}

	t := touched{}
	for ref := range refs {
		if err := r.recalculate(ctx, c, comp, ref, res, t); err != nil {
			return err
		}
	}
	r.invalidate(ctx, t)
	r.logger.Info("Competition recalculated",
		zap.String("competition", comp.Slug),
		zap.Int("competitors", len(refs)))
	return nil
}

// competitorOf returns the competitor the attendance competes as in comp
func competitorOf(comp *competition.Competition, ua *attendance.UserAttendance, companyID *uuid.UUID) (competition.CompetitorRef, bool) {
	switch comp.CompetitorType.Kind() {
	case competition.KindTeam:
		if ua.TeamID == nil {
			return competition.CompetitorRef{}, false
		}
		return competition.CompetitorRef{Kind: competition.KindTeam, ID: *ua.TeamID}, true
	case competition.KindCompany:
		if companyID == nil {
			return competition.CompetitorRef{}, false
		}
		return competition.CompetitorRef{Kind: competition.KindCompany, ID: *companyID}, true
	default:
		return competition.CompetitorRef{Kind: competition.KindUserAttendance, ID: ua.ID}, true
	}
}

func (r *Recalculator) recalculateAttendance(ctx context.Context, userAttendanceID uuid.UUID, res *resolver, t touched) error {
	ua, err := r.repos.Attendances.FindByID(ctx, userAttendanceID)
	if err != nil {
		return err
	}
	c, err := r.repos.Campaigns.FindByID(ctx, ua.CampaignID)
	if err != nil {
		return err
	}
	if err := r.refreshStatistics(ctx, c, ua); err != nil {
		return err
	}

	comps, err := r.repos.Competitions.FindByCampaign(ctx, c.ID)
	if err != nil {
		return err
	}
	cand, err := res.candidate(ctx, ua)
	if err != nil {
		return err
	}
	for i := range comps {
		comp := &comps[i]
		ref, ok := competitorOf(comp, ua, cand.CompanyID)
		if !ok {
			continue
		}
		if err := r.recalculate(ctx, c, comp, ref, res, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recalculator) recalculateTeam(ctx context.Context, teamID uuid.UUID, res *resolver, t touched) error {
	team, err := r.repos.Teams.FindByID(ctx, teamID)
	if err != nil {
		return err
	}
	members, err := r.repos.Attendances.FindByTeam(ctx, teamID)
	if err != nil {
		return err
	}
	approved := 0
	for i := range members {
		if members[i].IsApprovedTeamMember() {
			approved++
		}
	}
	if team.MemberCount != approved || team.UnapprovedMemberCount != len(members)-approved {
		team.SetMemberCounts(approved, len(members)-approved)
		if err := r.repos.Teams.Save(ctx, team); err != nil {
			return err
		}
	}
	res.teams[team.ID] = team

	c, err := r.repos.Campaigns.FindByID(ctx, team.CampaignID)
	if err != nil {
		return err
	}
	comps, err := r.repos.Competitions.FindByCampaign(ctx, c.ID)
	if err != nil {
		return err
	}
	sub, err := res.subsidiary(ctx, team.SubsidiaryID)
	if err != nil {
		return err
	}
	for i := range comps {
		comp := &comps[i]
		var ref competition.CompetitorRef
		switch comp.CompetitorType.Kind() {
		case competition.KindTeam:
			ref = competition.CompetitorRef{Kind: competition.KindTeam, ID: team.ID}
		case competition.KindCompany:
			ref = competition.CompetitorRef{Kind: competition.KindCompany, ID: sub.CompanyID}
		default:
			continue
		}
		if err := r.recalculate(ctx, c, comp, ref, res, t); err != nil {
			return err
		}
	}

	// admission of single participants depends on the team size
	for i := range members {
		if err := r.recalculateAttendance(ctx, members[i].ID, res, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recalculator) recalculateCompany(ctx context.Context, campaignID, companyID uuid.UUID, res *resolver, t touched) error {
	c, err := r.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return err
	}
	comps, err := r.repos.Competitions.FindByCampaign(ctx, c.ID)
	if err != nil {
		return err
	}
	ref := competition.CompetitorRef{Kind: competition.KindCompany, ID: companyID}
	for i := range comps {
		if comps[i].CompetitorType.Kind() != competition.KindCompany {
			continue
		}
		if err := r.recalculate(ctx, c, &comps[i], ref, res, t); err != nil {
			return err
		}
	}
	return nil
}

// recalculate computes and stores the result of ref in comp
func (r *Recalculator) recalculate(
	ctx context.Context,
	c *campaign.Campaign,
	comp *competition.Competition,
	ref competition.CompetitorRef,
	res *resolver,
	t touched,
) error {
	phase, _ := c.Phase(campaign.PhaseCompetition)
	from, to := comp.Range(phase.DateFrom, phase.DateTo)
	if from == nil || to == nil {
		r.logger.Debug("Competition has no date range, skipping",
			zap.String("competition", comp.Slug))
		return nil
	}

	result, err := r.repos.Results.FindForCompetitor(ctx, comp.ID, ref)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		result = nil
	case err != nil:
		return err
	}

	members, err := r.members(ctx, c, ref)
	if err != nil {
		return err
	}
	today := r.now()
	admitted := make([]uuid.UUID, 0, len(members))
	for i := range members {
		cand, err := res.candidate(ctx, &members[i])
		if err != nil {
			return err
		}
		// the entry deadline only keeps out competitors without a result
		var ok bool
		if result != nil {
			ok = comp.Admits(cand)
		} else {
			ok, _ = comp.CanAdmit(cand, phase.DateFrom, today)
		}
		if ok {
			admitted = append(admitted, members[i].ID)
		}
	}

	t[comp.ID] = comp.Type
	if len(admitted) == 0 {
		return r.repos.Results.DeleteForCompetitor(ctx, comp.ID, ref)
	}

	window := competition.Window{From: *from, To: *to, Today: today}
	rules := competition.Rules{MinimumRidesBase: c.MinimumRidesBase, TripPlusDistance: c.TripPlusDistance}

	var (
		memberTrips []competition.MemberTrips
		points      []decimal.Decimal
	)
	if comp.Type == competition.TypeQuestionnaire {
		answers, err := r.repos.Answers.FindByAttendances(ctx, comp.ID, admitted)
		if err != nil {
			return err
		}
		for i := range answers {
			points = append(points, answers[i].Points)
		}
	} else {
		trips, err := r.repos.Trips.FindByAttendances(ctx, admitted, *from, *to)
		if err != nil {
			return err
		}
		byMember := make(map[uuid.UUID][]trip.Trip, len(admitted))
		for i := range trips {
			byMember[trips[i].UserAttendanceID] = append(byMember[trips[i].UserAttendanceID], trips[i])
		}
		for _, id := range admitted {
			memberTrips = append(memberTrips, competition.MemberTrips{Trips: byMember[id]})
		}
	}

	score := comp.Calculate(memberTrips, points, rules, window)
	if result != nil {
		result.SetScore(score)
	} else {
		result = competition.NewResult(comp, ref, score)
	}
	if err := r.repos.Results.Upsert(ctx, result); err != nil {
		return fmt.Errorf("store result of %s %s: %w", ref.Kind, ref.ID, err)
	}
	return nil
}

// members returns the attendances a competitor consists of
func (r *Recalculator) members(ctx context.Context, c *campaign.Campaign, ref competition.CompetitorRef) ([]attendance.UserAttendance, error) {
	switch ref.Kind {
	case competition.KindTeam:
		all, err := r.repos.Attendances.FindByTeam(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		approved := all[:0]
		for _, ua := range all {
			if ua.IsApprovedTeamMember() {
				approved = append(approved, ua)
			}
		}
		return approved, nil
	case competition.KindCompany:
		return r.repos.Attendances.FindByCompany(ctx, c.ID, ref.ID)
	default:
		ua, err := r.repos.Attendances.FindByID(ctx, ref.ID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []attendance.UserAttendance{*ua}, nil
	}
}

// refreshStatistics stores the length, frequency and ride counts of the
// attendance over the competition phase
func (r *Recalculator) refreshStatistics(ctx context.Context, c *campaign.Campaign, ua *attendance.UserAttendance) error {
	phase, ok := c.Phase(campaign.PhaseCompetition)
	if !ok || phase.DateFrom == nil || phase.DateTo == nil {
		return nil
	}
	window := competition.Window{From: *phase.DateFrom, To: *phase.DateTo, Today: r.now()}
	rules := competition.Rules{MinimumRidesBase: c.MinimumRidesBase, TripPlusDistance: c.TripPlusDistance}

	trips, err := r.repos.Trips.FindByAttendance(ctx, ua.ID, window.From, window.To)
	if err != nil {
		return err
	}
	length := competition.Distance(trips, trip.CommuteMode.Eco, competition.Rules{}, window)
	frequency := competition.FrequencyScore(trips, rules, window)
	counts := competition.CountRides(trips, window)

	ua.SetRideStatistics(length, frequency.Value(), counts.EcoRides, int(frequency.Divisor.IntPart()))
	return r.repos.Attendances.Save(ctx, ua)
}

// resolver loads and memoizes what admission needs about participants
type resolver struct {
	repos        Repositories
	teams        map[uuid.UUID]*organization.Team
	subsidiaries map[uuid.UUID]*organization.Subsidiary
	sexes        map[uuid.UUID]identity.Sex
}

func newResolver(repos Repositories) *resolver {
	return &resolver{
		repos:        repos,
		teams:        make(map[uuid.UUID]*organization.Team),
		subsidiaries: make(map[uuid.UUID]*organization.Subsidiary),
		sexes:        make(map[uuid.UUID]identity.Sex),
	}
}

func (res *resolver) subsidiary(ctx context.Context, id uuid.UUID) (*organization.Subsidiary, error) {
	if sub, ok := res.subsidiaries[id]; ok {
		return sub, nil
	}
	sub, err := res.repos.Subsidiaries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res.subsidiaries[id] = sub
	return sub, nil
}

func (res *resolver) candidate(ctx context.Context, ua *attendance.UserAttendance) (competition.Candidate, error) {
	cand := competition.Candidate{
		PaymentStatus:  ua.PaymentStatus,
		ApprovedMember: ua.IsApprovedTeamMember(),
		TeamID:         ua.TeamID,
	}

	sex, ok := res.sexes[ua.UserID]
	if !ok {
		user, err := res.repos.Users.FindByID(ctx, ua.UserID)
		if err != nil {
			return cand, err
		}
		sex = user.Profile.Sex
		res.sexes[ua.UserID] = sex
	}
	cand.Sex = sex

	if ua.TeamID == nil {
		return cand, nil
	}
	team, ok := res.teams[*ua.TeamID]
	if !ok {
		var err error
		team, err = res.repos.Teams.FindByID(ctx, *ua.TeamID)
		if err != nil {
			return cand, err
		}
		res.teams[team.ID] = team
	}
	cand.TeamMemberCount = team.MemberCount

	sub, err := res.subsidiary(ctx, team.SubsidiaryID)
	if err != nil {
		return cand, err
	}
	companyID, cityID := sub.CompanyID, sub.CityID
	cand.CompanyID, cand.CityID = &companyID, &cityID
	return cand, nil
}
