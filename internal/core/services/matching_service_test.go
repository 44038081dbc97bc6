package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/carrylink/carrylink_backend/internal/apperrors"
	"github.com/carrylink/carrylink_backend/internal/core/domain"
	portssvc "github.com/carrylink/carrylink_backend/internal/core/ports/services"
	"github.com/carrylink/carrylink_backend/internal/core/services"
)

// MockMatchRepository is a mock type for the MatchRepositoryFacade interface
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) FindMatchByID(ctx context.Context, matchID string) (*domain.Match, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Match), args.Error(1)
}

func (m *MockMatchRepository) FindActiveJourneyIDsByDemand(ctx context.Context, demandID string) (map[int64]struct{}, error) {
	args := m.Called(ctx, demandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]struct{}), args.Error(1)
}

func (m *MockMatchRepository) FindActiveDemandIDsByJourney(ctx context.Context, journeyID int64) (map[string]struct{}, error) {
	args := m.Called(ctx, journeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockMatchRepository) ListMatchesByDemand(ctx context.Context, demandID string) ([]domain.Match, error) {
	args := m.Called(ctx, demandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Match), args.Error(1)
}

func (m *MockMatchRepository) ListMatchesByJourney(ctx context.Context, journeyID int64) ([]domain.Match, error) {
	args := m.Called(ctx, journeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Match), args.Error(1)
}

func (m *MockMatchRepository) ListMatchesByUser(ctx context.Context, userID string, status *domain.MatchStatus, limit int, nextToken *string) ([]domain.Match, *string, error) {
	args := m.Called(ctx, userID, status, limit, nextToken)
	var matches []domain.Match
	if args.Get(0) != nil {
		matches = args.Get(0).([]domain.Match)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return matches, token, args.Error(2)
}

func (m *MockMatchRepository) SaveMatch(ctx context.Context, match domain.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) UpdateMatch(ctx context.Context, match domain.Match) (*domain.Match, error) {
	args := m.Called(ctx, match)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Match), args.Error(1)
}

// MockDemandSource is a mock type for the DemandSource interface
type MockDemandSource struct {
	mock.Mock
}

func (m *MockDemandSource) GetDemandByID(ctx context.Context, demandID string) (*domain.DemandSummary, error) {
	args := m.Called(ctx, demandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DemandSummary), args.Error(1)
}

func (m *MockDemandSource) ListDemandsByStatus(ctx context.Context, status domain.DemandStatus) ([]domain.DemandSummary, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DemandSummary), args.Error(1)
}

// MockJourneySource is a mock type for the JourneySource interface
type MockJourneySource struct {
	mock.Mock
}

func (m *MockJourneySource) GetJourneyByID(ctx context.Context, journeyID int64) (*domain.JourneySummary, error) {
	args := m.Called(ctx, journeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JourneySummary), args.Error(1)
}

func (m *MockJourneySource) ListJourneysByStatus(ctx context.Context, status domain.JourneyStatus) ([]domain.JourneySummary, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JourneySummary), args.Error(1)
}

// --- Test Suite Setup ---

type MatchingServiceTestSuite struct {
	suite.Suite
	mockRepo     *MockMatchRepository
	mockDemands  *MockDemandSource
	mockJourneys *MockJourneySource
	service      portssvc.MatchingSvcFacade
}

func (suite *MatchingServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockMatchRepository)
	suite.mockDemands = new(MockDemandSource)
	suite.mockJourneys = new(MockJourneySource)
	suite.service = services.NewMatchingService(suite.mockRepo, suite.mockDemands, suite.mockJourneys)
}

// pendingDemand builds a pending delivery demand from San Francisco to New York,
// deadline ten days out.
func pendingDemand() *domain.DemandSummary {
	return &domain.DemandSummary{
		DemandID:           uuid.NewString(),
		OwnerID:            uuid.NewString(),
		OriginCountry:      "USA",
		OriginCity:         "San Francisco",
		DestinationCountry: "USA",
		DestinationCity:    "New York",
		WeightKg:           decimal.NewFromInt(2),
		ItemType:           "Electronics",
		Deadline:           time.Now().UTC().Add(10 * 24 * time.Hour),
		Status:             domain.DemandPending,
	}
}

// activeJourney builds an active journey on the same route departing in two days,
// eligible for pendingDemand.
func activeJourney() domain.JourneySummary {
	return domain.JourneySummary{
		JourneyID:          42,
		OwnerID:            uuid.NewString(),
		FromCountry:        "usa",
		FromCity:           "san francisco",
		ToCountry:          "USA",
		ToCity:             "New York",
		AvailableWeightKg:  decimal.NewFromInt(5),
		PreferredItemTypes: []string{"Electronics", "Books"},
		DepartureDate:      time.Now().UTC().Add(2 * 24 * time.Hour),
		Status:             domain.JourneyActive,
	}
}

func proposedMatch(demand *domain.DemandSummary, journey domain.JourneySummary) *domain.Match {
	now := time.Now().UTC()
	return &domain.Match{
		MatchID:        uuid.NewString(),
		DemandID:       demand.DemandID,
		JourneyID:      journey.JourneyID,
		DemandOwnerID:  demand.OwnerID,
		JourneyOwnerID: journey.OwnerID,
		Status:         domain.MatchProposed,
		Score:          0.8,
		MatchedAt:      now,
		UpdatedAt:      now,
		Version:        1,
	}
}

// --- Discovery ---

func (suite *MatchingServiceTestSuite) TestFindMatchesForDemand_CreatesMatch() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()

	suite.mockDemands.On("GetDemandByID", ctx, demand.DemandID).Return(demand, nil)
	suite.mockRepo.On("FindActiveJourneyIDsByDemand", ctx, demand.DemandID).Return(map[int64]struct{}{}, nil).Once()
	suite.mockJourneys.On("ListJourneysByStatus", ctx, domain.JourneyActive).Return([]domain.JourneySummary{journey}, nil).Once()

	suite.mockRepo.On("SaveMatch", ctx, mock.MatchedBy(func(m domain.Match) bool {
		return m.DemandID == demand.DemandID &&
			m.JourneyID == journey.JourneyID &&
			m.DemandOwnerID == demand.OwnerID &&
			m.JourneyOwnerID == journey.OwnerID &&
			m.Status == domain.MatchProposed &&
			m.Score >= 0.5 && m.Score <= 1 &&
			!m.DemanderConfirmed && !m.TravelerConfirmed &&
			m.ConfirmedAt == nil && m.RejectedAt == nil
	})).Return(nil).Once()

	persisted := proposedMatch(demand, journey)
	suite.mockRepo.On("ListMatchesByDemand", ctx, demand.DemandID).Return([]domain.Match{*persisted}, nil).Once()
	suite.mockJourneys.On("GetJourneyByID", ctx, journey.JourneyID).Return(&journey, nil).Once()

	details, err := suite.service.FindMatchesForDemand(ctx, demand.DemandID)

	suite.Require().NoError(err)
	suite.Require().Len(details, 1)
	suite.Equal(persisted.MatchID, details[0].Match.MatchID)
	suite.Require().NotNil(details[0].Demand)
	suite.Equal(demand.DemandID, details[0].Demand.DemandID)
	suite.Require().NotNil(details[0].Journey)
	suite.Equal(journey.JourneyID, details[0].Journey.JourneyID)

	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockDemands.AssertExpectations(suite.T())
	suite.mockJourneys.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestFindMatchesForDemand_SkipsAlreadyMatchedJourney() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()

	suite.mockDemands.On("GetDemandByID", ctx, demand.DemandID).Return(demand, nil)
	suite.mockRepo.On("FindActiveJourneyIDsByDemand", ctx, demand.DemandID).
		Return(map[int64]struct{}{journey.JourneyID: {}}, nil).Once()
	suite.mockJourneys.On("ListJourneysByStatus", ctx, domain.JourneyActive).Return([]domain.JourneySummary{journey}, nil).Once()
	suite.mockRepo.On("ListMatchesByDemand", ctx, demand.DemandID).Return([]domain.Match{}, nil).Once()

	details, err := suite.service.FindMatchesForDemand(ctx, demand.DemandID)

	suite.Require().NoError(err)
	suite.Empty(details)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveMatch", mock.Anything, mock.Anything)
}

func (suite *MatchingServiceTestSuite) TestFindMatchesForDemand_SkipsIneligibleJourneys() {
	ctx := context.Background()
	demand := pendingDemand()

	wrongRoute := activeJourney()
	wrongRoute.JourneyID = 101
	wrongRoute.ToCity = "Boston"

	tooSmall := activeJourney()
	tooSmall.JourneyID = 102
	tooSmall.AvailableWeightKg = decimal.NewFromInt(1)

	departsTooLate := activeJourney()
	departsTooLate.JourneyID = 103
	departsTooLate.DepartureDate = demand.Deadline.Add(24 * time.Hour)

	wrongItemType := activeJourney()
	wrongItemType.JourneyID = 104
	wrongItemType.PreferredItemTypes = []string{"Documents"}

	suite.mockDemands.On("GetDemandByID", ctx, demand.DemandID).Return(demand, nil)
	suite.mockRepo.On("FindActiveJourneyIDsByDemand", ctx, demand.DemandID).Return(map[int64]struct{}{}, nil).Once()
	suite.mockJourneys.On("ListJourneysByStatus", ctx, domain.JourneyActive).
		Return([]domain.JourneySummary{wrongRoute, tooSmall, departsTooLate, wrongItemType}, nil).Once()
	suite.mockRepo.On("ListMatchesByDemand", ctx, demand.DemandID).Return([]domain.Match{}, nil).Once()

	details, err := suite.service.FindMatchesForDemand(ctx, demand.DemandID)

	suite.Require().NoError(err)
	suite.Empty(details)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveMatch", mock.Anything, mock.Anything)
}

func (suite *MatchingServiceTestSuite) TestFindMatchesForDemand_DuplicateIsBenign() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()

	suite.mockDemands.On("GetDemandByID", ctx, demand.DemandID).Return(demand, nil)
	suite.mockRepo.On("FindActiveJourneyIDsByDemand", ctx, demand.DemandID).Return(map[int64]struct{}{}, nil).Once()
	suite.mockJourneys.On("ListJourneysByStatus", ctx, domain.JourneyActive).Return([]domain.JourneySummary{journey}, nil).Once()

	// Concurrent discovery already persisted the pair between exclusion and insert.
	suite.mockRepo.On("SaveMatch", ctx, mock.AnythingOfType("domain.Match")).Return(apperrors.ErrDuplicate).Once()

	persisted := proposedMatch(demand, journey)
	suite.mockRepo.On("ListMatchesByDemand", ctx, demand.DemandID).Return([]domain.Match{*persisted}, nil).Once()
	suite.mockJourneys.On("GetJourneyByID", ctx, journey.JourneyID).Return(&journey, nil).Once()

	details, err := suite.service.FindMatchesForDemand(ctx, demand.DemandID)

	suite.Require().NoError(err)
	suite.Len(details, 1)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestFindMatchesForDemand_WrongAnchorStatus() {
	ctx := context.Background()
	demand := pendingDemand()
	demand.Status = domain.DemandCancelled

	suite.mockDemands.On("GetDemandByID", ctx, demand.DemandID).Return(demand, nil).Once()

	details, err := suite.service.FindMatchesForDemand(ctx, demand.DemandID)

	suite.Require().Error(err)
	suite.Nil(details)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveMatch", mock.Anything, mock.Anything)
}

func (suite *MatchingServiceTestSuite) TestFindMatchesForDemand_AnchorNotFound() {
	ctx := context.Background()
	demandID := uuid.NewString()

	suite.mockDemands.On("GetDemandByID", ctx, demandID).Return(nil, apperrors.ErrNotFound).Once()

	details, err := suite.service.FindMatchesForDemand(ctx, demandID)

	suite.Require().Error(err)
	suite.Nil(details)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *MatchingServiceTestSuite) TestFindMatchesForDemand_SaveErrorPropagates() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	expectedErr := assert.AnError

	suite.mockDemands.On("GetDemandByID", ctx, demand.DemandID).Return(demand, nil)
	suite.mockRepo.On("FindActiveJourneyIDsByDemand", ctx, demand.DemandID).Return(map[int64]struct{}{}, nil).Once()
	suite.mockJourneys.On("ListJourneysByStatus", ctx, domain.JourneyActive).Return([]domain.JourneySummary{journey}, nil).Once()
	suite.mockRepo.On("SaveMatch", ctx, mock.AnythingOfType("domain.Match")).Return(expectedErr).Once()

	details, err := suite.service.FindMatchesForDemand(ctx, demand.DemandID)

	suite.Require().Error(err)
	suite.Nil(details)
	suite.ErrorIs(err, expectedErr)
	suite.mockRepo.AssertNotCalled(suite.T(), "ListMatchesByDemand", mock.Anything, mock.Anything)
}

func (suite *MatchingServiceTestSuite) TestFindMatchesForJourney_CreatesMatch() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()

	suite.mockJourneys.On("GetJourneyByID", ctx, journey.JourneyID).Return(&journey, nil)
	suite.mockRepo.On("FindActiveDemandIDsByJourney", ctx, journey.JourneyID).Return(map[string]struct{}{}, nil).Once()
	suite.mockDemands.On("ListDemandsByStatus", ctx, domain.DemandPending).Return([]domain.DemandSummary{*demand}, nil).Once()

	suite.mockRepo.On("SaveMatch", ctx, mock.MatchedBy(func(m domain.Match) bool {
		return m.DemandID == demand.DemandID && m.JourneyID == journey.JourneyID && m.Status == domain.MatchProposed
	})).Return(nil).Once()

	persisted := proposedMatch(demand, journey)
	suite.mockRepo.On("ListMatchesByJourney", ctx, journey.JourneyID).Return([]domain.Match{*persisted}, nil).Once()
	suite.mockDemands.On("GetDemandByID", ctx, demand.DemandID).Return(demand, nil).Once()

	details, err := suite.service.FindMatchesForJourney(ctx, journey.JourneyID)

	suite.Require().NoError(err)
	suite.Require().Len(details, 1)
	suite.Equal(persisted.MatchID, details[0].Match.MatchID)

	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockDemands.AssertExpectations(suite.T())
	suite.mockJourneys.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestFindMatchesForJourney_WrongAnchorStatus() {
	ctx := context.Background()
	journey := activeJourney()
	journey.Status = domain.JourneyDeparted

	suite.mockJourneys.On("GetJourneyByID", ctx, journey.JourneyID).Return(&journey, nil).Once()

	details, err := suite.service.FindMatchesForJourney(ctx, journey.JourneyID)

	suite.Require().Error(err)
	suite.Nil(details)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

// --- Confirmation state machine ---

func (suite *MatchingServiceTestSuite) TestConfirmMatchByDemander_FirstConfirmationGoesPending() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)

	suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(match, nil).Once()
	suite.mockRepo.On("UpdateMatch", ctx, mock.MatchedBy(func(m domain.Match) bool {
		return m.MatchID == match.MatchID &&
			m.Status == domain.MatchPending &&
			m.DemanderConfirmed && !m.TravelerConfirmed &&
			m.ConfirmedAt == nil
	})).Return(&domain.Match{MatchID: match.MatchID, Status: domain.MatchPending, DemanderConfirmed: true, Version: 2}, nil).Once()

	updated, err := suite.service.ConfirmMatchByDemander(ctx, match.MatchID, demand.OwnerID, true)

	suite.Require().NoError(err)
	suite.Equal(domain.MatchPending, updated.Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestConfirmMatchByTraveler_SecondConfirmationConfirms() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)
	match.Status = domain.MatchPending
	match.DemanderConfirmed = true

	suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(match, nil).Once()
	suite.mockRepo.On("UpdateMatch", ctx, mock.MatchedBy(func(m domain.Match) bool {
		return m.Status == domain.MatchConfirmed &&
			m.DemanderConfirmed && m.TravelerConfirmed &&
			m.ConfirmedAt != nil
	})).Return(&domain.Match{MatchID: match.MatchID, Status: domain.MatchConfirmed, Version: 3}, nil).Once()

	updated, err := suite.service.ConfirmMatchByTraveler(ctx, match.MatchID, journey.OwnerID, true)

	suite.Require().NoError(err)
	suite.Equal(domain.MatchConfirmed, updated.Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestConfirmMatch_RejectFromEitherSide() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)
	match.Status = domain.MatchPending
	match.DemanderConfirmed = true

	suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(match, nil).Once()
	suite.mockRepo.On("UpdateMatch", ctx, mock.MatchedBy(func(m domain.Match) bool {
		return m.Status == domain.MatchRejected && m.RejectedAt != nil
	})).Return(&domain.Match{MatchID: match.MatchID, Status: domain.MatchRejected, Version: 3}, nil).Once()

	updated, err := suite.service.ConfirmMatchByTraveler(ctx, match.MatchID, journey.OwnerID, false)

	suite.Require().NoError(err)
	suite.Equal(domain.MatchRejected, updated.Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestConfirmMatch_NonOwnerForbidden() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)
	stranger := uuid.NewString()

	suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(match, nil).Twice()

	_, err := suite.service.ConfirmMatchByDemander(ctx, match.MatchID, stranger, true)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	// The journey owner cannot confirm the demander side either.
	_, err = suite.service.ConfirmMatchByDemander(ctx, match.MatchID, journey.OwnerID, true)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateMatch", mock.Anything, mock.Anything)
}

func (suite *MatchingServiceTestSuite) TestConfirmMatch_TerminalStatusRejected() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()

	for _, status := range []domain.MatchStatus{domain.MatchRejected, domain.MatchCompleted, domain.MatchCancelled, domain.MatchConfirmed} {
		match := proposedMatch(demand, journey)
		match.Status = status

		suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(match, nil).Once()

		_, err := suite.service.ConfirmMatchByDemander(ctx, match.MatchID, demand.OwnerID, true)
		suite.ErrorIs(err, apperrors.ErrInvalidState, "status %s must not accept confirmation", status)
	}
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateMatch", mock.Anything, mock.Anything)
}

func (suite *MatchingServiceTestSuite) TestConfirmMatch_NotFound() {
	ctx := context.Background()
	matchID := uuid.NewString()

	suite.mockRepo.On("FindMatchByID", ctx, matchID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ConfirmMatchByDemander(ctx, matchID, uuid.NewString(), true)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *MatchingServiceTestSuite) TestConfirmMatch_RetriesOnVersionConflict() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)

	// First attempt loses the optimistic write; the re-read sees the traveler's
	// confirmation already applied, so the demander's write lands as CONFIRMED.
	staleRead := *match
	freshRead := *match
	freshRead.Status = domain.MatchPending
	freshRead.TravelerConfirmed = true
	freshRead.Version = 2

	suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(&staleRead, nil).Once()
	suite.mockRepo.On("UpdateMatch", ctx, mock.AnythingOfType("domain.Match")).Return(nil, apperrors.ErrConflict).Once()

	suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(&freshRead, nil).Once()
	suite.mockRepo.On("UpdateMatch", ctx, mock.MatchedBy(func(m domain.Match) bool {
		return m.Status == domain.MatchConfirmed && m.Version == 2
	})).Return(&domain.Match{MatchID: match.MatchID, Status: domain.MatchConfirmed, Version: 3}, nil).Once()

	updated, err := suite.service.ConfirmMatchByDemander(ctx, match.MatchID, demand.OwnerID, true)

	suite.Require().NoError(err)
	suite.Equal(domain.MatchConfirmed, updated.Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestConfirmMatch_RetriesExhausted() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)

	suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(match, nil).Times(3)
	suite.mockRepo.On("UpdateMatch", ctx, mock.AnythingOfType("domain.Match")).Return(nil, apperrors.ErrConflict).Times(3)

	_, err := suite.service.ConfirmMatchByDemander(ctx, match.MatchID, demand.OwnerID, true)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockRepo.AssertExpectations(suite.T())
}

// --- Finalization ---

func (suite *MatchingServiceTestSuite) TestCompleteMatch_Success() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)
	match.Status = domain.MatchConfirmed

	suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(match, nil).Once()
	suite.mockRepo.On("UpdateMatch", ctx, mock.MatchedBy(func(m domain.Match) bool {
		return m.Status == domain.MatchCompleted
	})).Return(&domain.Match{MatchID: match.MatchID, Status: domain.MatchCompleted, Version: 2}, nil).Once()

	updated, err := suite.service.CompleteMatch(ctx, match.MatchID)

	suite.Require().NoError(err)
	suite.Equal(domain.MatchCompleted, updated.Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestCancelMatch_Success() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)
	match.Status = domain.MatchConfirmed

	suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(match, nil).Once()
	suite.mockRepo.On("UpdateMatch", ctx, mock.MatchedBy(func(m domain.Match) bool {
		return m.Status == domain.MatchCancelled
	})).Return(&domain.Match{MatchID: match.MatchID, Status: domain.MatchCancelled, Version: 2}, nil).Once()

	updated, err := suite.service.CancelMatch(ctx, match.MatchID)

	suite.Require().NoError(err)
	suite.Equal(domain.MatchCancelled, updated.Status)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestFinalize_RequiresConfirmedStatus() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()

	for _, status := range []domain.MatchStatus{domain.MatchProposed, domain.MatchPending, domain.MatchRejected, domain.MatchCompleted, domain.MatchCancelled} {
		match := proposedMatch(demand, journey)
		match.Status = status

		suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(match, nil).Twice()

		_, err := suite.service.CompleteMatch(ctx, match.MatchID)
		suite.ErrorIs(err, apperrors.ErrInvalidState, "complete from %s must fail", status)

		_, err = suite.service.CancelMatch(ctx, match.MatchID)
		suite.ErrorIs(err, apperrors.ErrInvalidState, "cancel from %s must fail", status)
	}
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateMatch", mock.Anything, mock.Anything)
}

// --- Reads and listing ---

func (suite *MatchingServiceTestSuite) TestGetMatchByID_Success() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)

	suite.mockRepo.On("FindMatchByID", ctx, match.MatchID).Return(match, nil).Once()

	found, err := suite.service.GetMatchByID(ctx, match.MatchID)

	suite.Require().NoError(err)
	suite.Equal(match, found)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestGetMatchByID_NotFound() {
	ctx := context.Background()
	matchID := uuid.NewString()

	suite.mockRepo.On("FindMatchByID", ctx, matchID).Return(nil, apperrors.ErrNotFound).Once()

	found, err := suite.service.GetMatchByID(ctx, matchID)

	suite.Require().Error(err)
	suite.Nil(found)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *MatchingServiceTestSuite) TestListMatchesForUser_InvalidStatus() {
	ctx := context.Background()
	bogus := domain.MatchStatus("SHIPPED")

	_, _, err := suite.service.ListMatchesForUser(ctx, uuid.NewString(), &bogus, 20, nil)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "ListMatchesByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *MatchingServiceTestSuite) TestListMatchesForUser_PassesTokenThrough() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)
	userID := demand.OwnerID
	nextToken := "b64token"

	suite.mockRepo.On("ListMatchesByUser", ctx, userID, (*domain.MatchStatus)(nil), 20, (*string)(nil)).
		Return([]domain.Match{*match}, &nextToken, nil).Once()
	suite.mockDemands.On("GetDemandByID", ctx, demand.DemandID).Return(demand, nil).Once()
	suite.mockJourneys.On("GetJourneyByID", ctx, journey.JourneyID).Return(&journey, nil).Once()

	details, token, err := suite.service.ListMatchesForUser(ctx, userID, nil, 20, nil)

	suite.Require().NoError(err)
	suite.Len(details, 1)
	suite.Require().NotNil(token)
	suite.Equal(nextToken, *token)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *MatchingServiceTestSuite) TestListMatchesForDemand_EnrichmentFailureLeavesNil() {
	ctx := context.Background()
	demand := pendingDemand()
	journey := activeJourney()
	match := proposedMatch(demand, journey)

	suite.mockRepo.On("ListMatchesByDemand", ctx, demand.DemandID).Return([]domain.Match{*match}, nil).Once()
	// The journey source is down; the match row is still returned.
	suite.mockDemands.On("GetDemandByID", ctx, demand.DemandID).Return(demand, nil).Once()
	suite.mockJourneys.On("GetJourneyByID", ctx, journey.JourneyID).Return(nil, assert.AnError).Once()

	details, err := suite.service.ListMatchesForDemand(ctx, demand.DemandID)

	suite.Require().NoError(err)
	suite.Require().Len(details, 1)
	suite.NotNil(details[0].Demand)
	suite.Nil(details[0].Journey)
}

func (suite *MatchingServiceTestSuite) TestListMatchesForJourney_RepoError() {
	ctx := context.Background()
	journey := activeJourney()
	expectedErr := assert.AnError

	suite.mockRepo.On("ListMatchesByJourney", ctx, journey.JourneyID).Return(nil, expectedErr).Once()

	details, err := suite.service.ListMatchesForJourney(ctx, journey.JourneyID)

	suite.Require().Error(err)
	suite.Nil(details)
	suite.ErrorIs(err, expectedErr)
}

// --- Run Test Suite ---

func TestMatchingService(t *testing.T) {
	suite.Run(t, new(MatchingServiceTestSuite))
}
