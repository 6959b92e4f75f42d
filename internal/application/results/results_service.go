package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/dpnk/backend/internal/domain/competition"
	"github.com/dpnk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// resultsPageTTL bounds how long a cached page survives when no
// invalidation reaches it
const resultsPageTTL = 10 * time.Minute

// ResultsService serves competitions, result tables and questionnaires
type ResultsService struct {
	repos     Repositories
	cache     competition.ResultsCache
	recalc    *Recalculator
	tx        shared.Transactor
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewResultsService creates a new results service
func NewResultsService(
	repos Repositories,
	cache competition.ResultsCache,
	recalc *Recalculator,
	tx shared.Transactor,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ResultsService {
	return &ResultsService{
		repos:     repos,
		cache:     cache,
		recalc:    recalc,
		tx:        tx,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateCompetition adds a competition to the campaign and computes the
// results of everyone already taking part
func (s *ResultsService) CreateCompetition(ctx context.Context, campaignID uuid.UUID, input CreateCompetitionInput) (*CompetitionResponse, error) {
	if _, err := s.repos.Competitions.FindBySlug(ctx, campaignID, input.Slug); err == nil {
		return nil, shared.NewDomainError(shared.ErrAlreadyExists.Code, "A competition with this slug already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	comp, err := competition.NewCompetition(campaignID, input.Name, input.Slug, input.Type, input.CompetitorType)
	if err != nil {
		return nil, err
	}
	if err := comp.SetDates(input.DateFrom, input.DateTo); err != nil {
		return nil, err
	}
	if input.EntryAfterBeginningDays != nil {
		comp.EntryAfterBeginningDays = *input.EntryAfterBeginningDays
	}
	if input.IsPublic != nil {
		comp.IsPublic = *input.IsPublic
	}
	comp.PublicAnswers = input.PublicAnswers
	comp.SexFilter = input.SexFilter
	comp.CityID = input.CityID
	comp.CompanyID = input.CompanyID
	if len(input.CommuteModes) > 0 {
		comp.CommuteModes = input.CommuteModes
	}

	if err := s.repos.Competitions.Save(ctx, comp); err != nil {
		return nil, err
	}
	if err := s.recalc.RecalculateCompetition(ctx, comp); err != nil {
		s.logger.Warn("Initial results computation failed",
			zap.String("competition", comp.Slug),
			zap.Error(err))
	}

	s.logger.Info("Competition created",
		zap.String("campaign_id", campaignID.String()),
		zap.String("slug", comp.Slug),
		zap.String("type", string(comp.Type)),
		zap.String("competitor_type", string(comp.CompetitorType)))

	resp := ToCompetitionResponse(comp)
	return &resp, nil
}

// ListCompetitions lists the competitions of the campaign. Staff also see
// the non-public ones.
func (s *ResultsService) ListCompetitions(ctx context.Context, campaignID uuid.UUID, staff bool) ([]CompetitionResponse, error) {
	comps, err := s.repos.Competitions.FindByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	items := make([]CompetitionResponse, 0, len(comps))
	for i := range comps {
		if !comps[i].IsPublic && !staff {
			continue
		}
		items = append(items, ToCompetitionResponse(&comps[i]))
	}
	return items, nil
}

// Results returns a page of the results table. Pages are served from the
// results cache and filled on a miss.
func (s *ResultsService) Results(ctx context.Context, campaignID uuid.UUID, slug string, filter shared.Filter, staff bool) (*ResultsPage, error) {
	comp, err := s.visibleCompetition(ctx, campaignID, slug, staff)
	if err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 50
	}

	key := fmt.Sprintf("page:%d:%d", filter.Page, filter.PageSize)
	if data, ok, err := s.cache.Get(ctx, comp.ID, key); err != nil {
		s.logger.Warn("Results cache read failed", zap.Error(err))
	} else if ok {
		var page ResultsPage
		if err := json.Unmarshal(data, &page); err == nil {
			return &page, nil
		}
	}

	page, err := s.buildPage(ctx, comp, filter)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(page); err == nil {
		if err := s.cache.Set(ctx, comp.ID, key, data, resultsPageTTL); err != nil {
			s.logger.Warn("Results cache write failed", zap.Error(err))
		}
	}
	return page, nil
}

// Standings returns the whole results table of a competition for staff
// exports. The cache is not consulted.
func (s *ResultsService) Standings(ctx context.Context, campaignID uuid.UUID, slug string) (*ResultsPage, error) {
	comp, err := s.visibleCompetition(ctx, campaignID, slug, true)
	if err != nil {
		return nil, err
	}
	return s.buildPage(ctx, comp, shared.Filter{Page: 1})
}

func (s *ResultsService) visibleCompetition(ctx context.Context, campaignID uuid.UUID, slug string, staff bool) (*competition.Competition, error) {
	comp, err := s.repos.Competitions.FindBySlug(ctx, campaignID, slug)
	if err != nil {
		return nil, err
	}
	if staff {
		return comp, nil
	}
	if !comp.IsPublic {
		return nil, shared.ErrNotFound
	}
	if !comp.ShowResults {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "Results of this competition are not published")
	}
	return comp, nil
}

func (s *ResultsService) buildPage(ctx context.Context, comp *competition.Competition, filter shared.Filter) (*ResultsPage, error) {
	results, total, err := s.repos.Results.FindByCompetition(ctx, comp.ID, filter)
	if err != nil {
		return nil, err
	}

	names, err := s.competitorNames(ctx, results)
	if err != nil {
		return nil, err
	}

	places := make(map[string]competition.RankedResult)
	items := make([]ResultRow, len(results))
	for i := range results {
		r := &results[i]
		ranked, ok := places[r.Result.String()]
		if !ok {
			better, equal, err := s.repos.Results.CountBetter(ctx, comp.ID, r)
			if err != nil {
				return nil, err
			}
			from, to := competition.SequenceRange(better, equal)
			ranked = competition.RankedResult{From: from, To: to}
			places[r.Result.String()] = ranked
		}
		ref := r.Competitor()
		items[i] = ResultRow{
			Place:      ranked.PlaceLabel(),
			From:       ranked.From,
			To:         ranked.To,
			Competitor: CompetitorResponse{Kind: ref.Kind, ID: ref.ID, Name: names[ref]},
			Result:     r.Result,
			Divident:   r.ResultDivident,
			Divisor:    r.ResultDivisor,
		}
	}

	return &ResultsPage{
		Competition: ToCompetitionResponse(comp),
		Items:       items,
		Total:       total,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
	}, nil
}

// competitorNames resolves display names of the competitors of a page
func (s *ResultsService) competitorNames(ctx context.Context, results []competition.Result) (map[competition.CompetitorRef]string, error) {
	names := make(map[competition.CompetitorRef]string, len(results))
	var uaIDs []uuid.UUID
	for i := range results {
		ref := results[i].Competitor()
		switch ref.Kind {
		case competition.KindTeam:
			team, err := s.repos.Teams.FindByID(ctx, ref.ID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			if team != nil {
				names[ref] = team.Name
			}
		case competition.KindCompany:
			company, err := s.repos.Companies.FindByID(ctx, ref.ID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			if company != nil {
				names[ref] = company.Name
			}
		default:
			uaIDs = append(uaIDs, ref.ID)
		}
	}
	if len(uaIDs) == 0 {
		return names, nil
	}

	attendances, err := s.repos.Attendances.FindByIDs(ctx, uaIDs)
	if err != nil {
		return nil, err
	}
	userIDs := make([]uuid.UUID, len(attendances))
	for i := range attendances {
		userIDs[i] = attendances[i].UserID
	}
	users, err := s.repos.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uuid.UUID]string, len(users))
	for i := range users {
		byUser[users[i].ID] = users[i].DisplayName()
	}
	for i := range attendances {
		ref := competition.CompetitorRef{Kind: competition.KindUserAttendance, ID: attendances[i].ID}
		names[ref] = byUser[attendances[i].UserID]
	}
	return names, nil
}

// MyResults returns the standing of the user in every public competition of
// the campaign, with the refusal reason where the user does not take part
func (s *ResultsService) MyResults(ctx context.Context, campaignID, userID uuid.UUID) (*MyResultsResponse, error) {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	comps, err := s.repos.Competitions.FindByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	res := newResolver(s.repos)
	cand, err := res.candidate(ctx, ua)
	if err != nil {
		return nil, err
	}
	phase, _ := c.Phase(campaign.PhaseCompetition)
	today := s.now()

	out := &MyResultsResponse{
		TripLengthTotal: ua.TripLengthTotal,
		Frequency:       ua.Frequency,
		Rides:           ua.GetRidesCount,
		WorkingRides:    ua.WorkingRidesBase,
		HasEnoughRides:  ua.HasEnoughRides(c.MinimumPercentage),
		Competitions:    make([]MyCompetitionResult, 0, len(comps)),
	}
	for i := range comps {
		comp := &comps[i]
		if !comp.IsPublic {
			continue
		}
		item := MyCompetitionResult{Competition: ToCompetitionResponse(comp)}

		ref, hasRef := competitorOf(comp, ua, cand.CompanyID)
		var result *competition.Result
		if hasRef {
			found, err := s.repos.Results.FindForCompetitor(ctx, comp.ID, ref)
			switch {
			case err == nil:
				result = found
			case !errors.Is(err, shared.ErrNotFound):
				return nil, err
			}
		}

		if result != nil && comp.Admits(cand) {
			item.Admitted = true
		} else {
			item.Admitted, item.Refusal = comp.CanAdmit(cand, phase.DateFrom, today)
		}

		if item.Admitted && result != nil {
			item.Competitor = &CompetitorResponse{Kind: ref.Kind, ID: ref.ID}
			value := result.Result
			item.Result = &value
			if comp.ShowResults {
				better, equal, err := s.repos.Results.CountBetter(ctx, comp.ID, result)
				if err != nil {
					return nil, err
				}
				from, to := competition.SequenceRange(better, equal)
				item.Place = competition.RankedResult{From: from, To: to}.PlaceLabel()
			}
		}
		out.Competitions = append(out.Competitions, item)
	}
	return out, nil
}

// AddQuestion appends a question to a questionnaire competition
func (s *ResultsService) AddQuestion(ctx context.Context, campaignID uuid.UUID, slug string, input AddQuestionInput) (*QuestionResponse, error) {
	comp, err := s.repos.Competitions.FindBySlug(ctx, campaignID, slug)
	if err != nil {
		return nil, err
	}
	if comp.Type != competition.TypeQuestionnaire {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "Only questionnaire competitions have questions")
	}
	q, err := competition.NewQuestion(comp.ID, input.Order, input.Text, input.Type)
	if err != nil {
		return nil, err
	}
	if input.Required != nil {
		q.Required = *input.Required
	}
	for _, ch := range input.Choices {
		q.AddChoice(ch.Text, ch.Points)
	}
	if err := s.repos.Questions.Save(ctx, q); err != nil {
		return nil, err
	}
	resp := ToQuestionResponse(q)
	return &resp, nil
}

// Questions lists the questions of a questionnaire competition
func (s *ResultsService) Questions(ctx context.Context, campaignID uuid.UUID, slug string) ([]QuestionResponse, error) {
	comp, err := s.repos.Competitions.FindBySlug(ctx, campaignID, slug)
	if err != nil {
		return nil, err
	}
	questions, err := s.repos.Questions.FindByCompetition(ctx, comp.ID)
	if err != nil {
		return nil, err
	}
	items := make([]QuestionResponse, len(questions))
	for i := range questions {
		items[i] = ToQuestionResponse(&questions[i])
	}
	return items, nil
}

// SubmitAnswers stores the replies of the user to a questionnaire. Earlier
// replies to the same questions are replaced.
func (s *ResultsService) SubmitAnswers(ctx context.Context, campaignID, userID uuid.UUID, slug string, input SubmitAnswersInput) ([]AnswerResponse, error) {
	c, err := s.repos.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	comp, err := s.repos.Competitions.FindBySlug(ctx, campaignID, slug)
	if err != nil {
		return nil, err
	}
	if comp.Type != competition.TypeQuestionnaire {
		return nil, shared.NewDomainError(shared.ErrInvalidState.Code, "This competition takes no answers")
	}
	ua, err := s.repos.Attendances.FindByUser(ctx, campaignID, userID)
	if err != nil {
		return nil, err
	}
	cand, err := newResolver(s.repos).candidate(ctx, ua)
	if err != nil {
		return nil, err
	}
	phase, _ := c.Phase(campaign.PhaseCompetition)
	if ok, reason := comp.CanAdmit(cand, phase.DateFrom, s.now()); !ok {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "Cannot answer: "+string(reason))
	}

	out := make([]AnswerResponse, 0, len(input.Answers))
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, in := range input.Answers {
			q, err := s.repos.Questions.FindByID(ctx, in.QuestionID)
			if err != nil {
				return err
			}
			if q.CompetitionID != comp.ID {
				return shared.NewDomainError(shared.ErrInvalidInput.Code, "Question does not belong to this competition")
			}

			a, err := s.repos.Answers.FindByQuestion(ctx, q.ID, ua.ID)
			switch {
			case err == nil:
				if err := a.Change(q, in.Comment, in.ChoiceIDs); err != nil {
					return err
				}
			case errors.Is(err, shared.ErrNotFound):
				a, err = competition.NewAnswer(campaignID, q, ua.ID, in.Comment, in.ChoiceIDs)
				if err != nil {
					return err
				}
			default:
				return err
			}

			if err := s.repos.Answers.Save(ctx, a); err != nil {
				return err
			}
			if err := s.publishAndClear(ctx, a); err != nil {
				return err
			}
			out = append(out, ToAnswerResponse(a))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Questionnaire answered",
		zap.String("competition", comp.Slug),
		zap.String("user_attendance_id", ua.ID.String()),
		zap.Int("answers", len(out)))
	return out, nil
}

// GivePoints scores an answer by hand
func (s *ResultsService) GivePoints(ctx context.Context, answerID uuid.UUID, input GivePointsInput) (*AnswerResponse, error) {
	var resp AnswerResponse
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repos.Answers.FindByID(ctx, answerID)
		if err != nil {
			return err
		}
		q, err := s.repos.Questions.FindByID(ctx, a.QuestionID)
		if err != nil {
			return err
		}
		if err := a.GivePoints(q, input.Points); err != nil {
			return err
		}
		if err := s.repos.Answers.Save(ctx, a); err != nil {
			return err
		}
		resp = ToAnswerResponse(a)
		return s.publishAndClear(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *ResultsService) publishAndClear(ctx context.Context, a *competition.Answer) error {
	if err := s.publisher.Publish(ctx, a.GetDomainEvents()...); err != nil {
		return err
	}
	a.ClearDomainEvents()
	return nil
}
