//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hemabank/internal/donation/models"
	"hemabank/internal/donation/store"
	id "hemabank/pkg/domain"
	"hemabank/pkg/testutil/containers"
)

// PostgresStoreSuite exercises the PostgreSQL store against a real database,
// covering the behaviors the in-memory tests cannot prove: the unique
// constraint under concurrency and transactional rollback of the completion
// unit.
type PostgresStoreSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *store.Postgres
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.ApplyMigrations(s.T(), "../../../migrations")
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.pg.Terminate(s.T())
}

func (s *PostgresStoreSuite) SetupTest() {
	for _, table := range store.Tables {
		_, err := s.pg.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		s.Require().NoError(err)
	}
}

func (s *PostgresStoreSuite) seedDonor() *models.Donor {
	now := time.Now().UTC().Truncate(time.Microsecond)
	donor := &models.Donor{
		ID:          id.NewDonorID(),
		OwnerID:     id.NewUserID(),
		Name:        "Maya",
		Breed:       "Greyhound",
		DateOfBirth: now.AddDate(-3, 0, 0),
		WeightKg:    29.5,
		Sex:         models.DonorSexFemale,
		BloodType:   models.BloodTypeDEA1_1Negative,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Require().NoError(s.store.SaveDonor(s.ctx, donor))
	return donor
}

func (s *PostgresStoreSuite) seedRequest() *models.DonationRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	request := &models.DonationRequest{
		ID:        id.NewRequestID(),
		ClinicID:  id.NewClinicID(),
		CreatedBy: id.NewUserID(),
		VolumeML:  250,
		Urgency:   models.UrgencyUrgent,
		NeededBy:  now.AddDate(0, 0, 7),
		Status:    models.RequestOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.store.CreateRequest(s.ctx, request))
	return request
}

func (s *PostgresStoreSuite) seedResponse(requestID id.RequestID, donor *models.Donor, status models.ResponseStatus) *models.DonationResponse {
	now := time.Now().UTC().Truncate(time.Microsecond)
	response := &models.DonationResponse{
		ID:        id.NewResponseID(),
		RequestID: requestID,
		DonorID:   donor.ID,
		OwnerID:   donor.OwnerID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.store.CreateResponse(s.ctx, response))
	return response
}

func (s *PostgresStoreSuite) TestDonorRoundTrip() {
	donor := s.seedDonor()
	s.Equal(int64(1), donor.Version)

	stored, err := s.store.GetDonor(s.ctx, donor.ID)
	s.Require().NoError(err)
	s.Equal(donor.ID, stored.ID)
	s.Equal(donor.OwnerID, stored.OwnerID)
	s.Equal(donor.BloodType, stored.BloodType)
	s.InDelta(donor.WeightKg, stored.WeightKg, 0.001)
	s.Nil(stored.LastDonationDate)
	s.Equal(int64(1), stored.Version)

	_, err = s.store.GetDonor(s.ctx, id.NewDonorID())
	s.Require().ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestVersionGuardRejectsStaleWrites() {
	donor := s.seedDonor()

	fresh, err := s.store.GetDonor(s.ctx, donor.ID)
	s.Require().NoError(err)
	stale, err := s.store.GetDonor(s.ctx, donor.ID)
	s.Require().NoError(err)

	now := time.Now().UTC()
	fresh.LastDonationDate = &now
	s.Require().NoError(s.store.UpdateDonor(s.ctx, fresh))
	s.Equal(int64(2), fresh.Version)

	stale.WeightKg = 40
	s.Require().ErrorIs(s.store.UpdateDonor(s.ctx, stale), store.ErrVersionConflict)

	// The winning write survived intact.
	final, err := s.store.GetDonor(s.ctx, donor.ID)
	s.Require().NoError(err)
	s.NotNil(final.LastDonationDate)
	s.InDelta(29.5, final.WeightKg, 0.001)
}

func (s *PostgresStoreSuite) TestUniquePairConstraint() {
	donor := s.seedDonor()
	request := s.seedRequest()
	s.seedResponse(request.ID, donor, models.ResponseDeclined)

	dup := &models.DonationResponse{
		ID:        id.NewResponseID(),
		RequestID: request.ID,
		DonorID:   donor.ID,
		OwnerID:   donor.OwnerID,
		Status:    models.ResponseAccepted,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.Require().ErrorIs(s.store.CreateResponse(s.ctx, dup), store.ErrDuplicateResponse)
}

func (s *PostgresStoreSuite) TestUniquePairConstraintUnderConcurrency() {
	donor := s.seedDonor()
	request := s.seedRequest()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			now := time.Now().UTC()
			errs[i] = s.store.CreateResponse(s.ctx, &models.DonationResponse{
				ID:        id.NewResponseID(),
				RequestID: request.ID,
				DonorID:   donor.ID,
				OwnerID:   donor.OwnerID,
				Status:    models.ResponseAccepted,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.Require().ErrorIs(err, store.ErrDuplicateResponse)
		}
	}
	s.Equal(1, succeeded)

	stored, err := s.store.ListResponsesByRequest(s.ctx, request.ID, nil)
	s.Require().NoError(err)
	s.Len(stored, 1)
}

func (s *PostgresStoreSuite) TestApplyCompletion() {
	donor := s.seedDonor()
	request := s.seedRequest()
	response := s.seedResponse(request.ID, donor, models.ResponseAccepted)

	now := time.Now().UTC().Truncate(time.Microsecond)
	donor.LastDonationDate = &now
	donor.UpdatedAt = now
	response.Status = models.ResponseCompleted
	response.UpdatedAt = now
	request.Status = models.RequestFulfilled
	request.UpdatedAt = now

	s.Require().NoError(s.store.ApplyCompletion(s.ctx, store.Completion{
		Donor:    donor,
		Response: response,
		Request:  request,
	}))

	storedDonor, err := s.store.GetDonor(s.ctx, donor.ID)
	s.Require().NoError(err)
	s.NotNil(storedDonor.LastDonationDate)

	storedResponse, err := s.store.GetResponse(s.ctx, response.ID)
	s.Require().NoError(err)
	s.Equal(models.ResponseCompleted, storedResponse.Status)

	storedRequest, err := s.store.GetRequest(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestFulfilled, storedRequest.Status)
}

func (s *PostgresStoreSuite) TestApplyCompletionRollsBackOnStaleVersion() {
	donor := s.seedDonor()
	request := s.seedRequest()
	response := s.seedResponse(request.ID, donor, models.ResponseAccepted)

	// Another writer bumps the donor behind this completion's back.
	other, err := s.store.GetDonor(s.ctx, donor.ID)
	s.Require().NoError(err)
	other.WeightKg = 31
	s.Require().NoError(s.store.UpdateDonor(s.ctx, other))

	now := time.Now().UTC()
	donor.LastDonationDate = &now
	response.Status = models.ResponseCompleted
	request.Status = models.RequestFulfilled

	err = s.store.ApplyCompletion(s.ctx, store.Completion{
		Donor:    donor,
		Response: response,
		Request:  request,
	})
	s.Require().ErrorIs(err, store.ErrVersionConflict)

	// Nothing from the unit landed.
	storedResponse, err := s.store.GetResponse(s.ctx, response.ID)
	s.Require().NoError(err)
	s.Equal(models.ResponseAccepted, storedResponse.Status)

	storedRequest, err := s.store.GetRequest(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(models.RequestOpen, storedRequest.Status)

	storedDonor, err := s.store.GetDonor(s.ctx, donor.ID)
	s.Require().NoError(err)
	s.Nil(storedDonor.LastDonationDate)
}

func (s *PostgresStoreSuite) TestListExpirableRequests() {
	now := time.Now().UTC().Truncate(time.Microsecond)

	stale := s.seedRequest()
	_, err := s.pg.DB.Exec(
		`UPDATE donation_requests SET needed_by = $2 WHERE id = $1`,
		stale.ID.String(), now.Add(-time.Hour))
	s.Require().NoError(err)
	s.seedRequest() // still in the future

	expirable, err := s.store.ListExpirableRequests(s.ctx, now)
	s.Require().NoError(err)
	s.Require().Len(expirable, 1)
	s.Equal(stale.ID, expirable[0].ID)
}

func (s *PostgresStoreSuite) TestListOpenRequestsFilter() {
	request := s.seedRequest()

	byUrgency, err := s.store.ListOpenRequests(s.ctx, store.OpenRequestFilter{Urgency: models.UrgencyUrgent})
	s.Require().NoError(err)
	s.Require().Len(byUrgency, 1)
	s.Equal(request.ID, byUrgency[0].ID)

	critical := models.UrgencyCritical
	none, err := s.store.ListOpenRequests(s.ctx, store.OpenRequestFilter{Urgency: critical})
	s.Require().NoError(err)
	s.Empty(none)
}
