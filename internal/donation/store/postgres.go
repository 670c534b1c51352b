package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"hemabank/internal/donation/models"
	id "hemabank/pkg/domain"
)

// uniqueViolation is the PostgreSQL error code raised by the
// uq_request_donor constraint on donation_responses.
const uniqueViolation = "23505"

// Postgres persists the donation domain in PostgreSQL. Optimistic concurrency
// uses `UPDATE ... WHERE id = $1 AND version = $2`; zero rows affected means
// another writer got there first.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed donation store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// querier abstracts *sql.DB and *sql.Tx so entity writes can run standalone
// or inside the completion transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ----------------------------------------------------------------------------
// Donors
// ----------------------------------------------------------------------------

const donorColumns = `id, owner_id, name, breed, date_of_birth, weight_kg, sex, blood_type,
	last_donation_date, medical_notes, active, version, created_at, updated_at`

func scanDonor(row interface{ Scan(dest ...any) error }) (*models.Donor, error) {
	var d models.Donor
	var donorID, ownerID string
	var lastDonation sql.NullTime
	var breed, notes sql.NullString
	if err := row.Scan(
		&donorID, &ownerID, &d.Name, &breed, &d.DateOfBirth, &d.WeightKg, &d.Sex,
		&d.BloodType, &lastDonation, &notes, &d.Active, &d.Version, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsedDonor, err := id.ParseDonorID(donorID)
	if err != nil {
		return nil, fmt.Errorf("scan donor id: %w", err)
	}
	parsedOwner, err := id.ParseUserID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("scan donor owner id: %w", err)
	}
	d.ID = parsedDonor
	d.OwnerID = parsedOwner
	d.Breed = breed.String
	d.MedicalNotes = notes.String
	if lastDonation.Valid {
		t := lastDonation.Time
		d.LastDonationDate = &t
	}
	return &d, nil
}

func (s *Postgres) GetDonor(ctx context.Context, donorID id.DonorID) (*models.Donor, error) {
	query := `SELECT ` + donorColumns + ` FROM donors WHERE id = $1`
	donor, err := scanDonor(s.db.QueryRowContext(ctx, query, donorID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get donor: %w", err)
	}
	return donor, nil
}

func (s *Postgres) SaveDonor(ctx context.Context, donor *models.Donor) error {
	query := `
		INSERT INTO donors (` + donorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		donor.ID.String(), donor.OwnerID.String(), donor.Name, nullString(donor.Breed),
		donor.DateOfBirth, donor.WeightKg, donor.Sex, donor.BloodType,
		nullTime(donor.LastDonationDate), nullString(donor.MedicalNotes), donor.Active,
		donor.CreatedAt, donor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save donor: %w", err)
	}
	donor.Version = 1
	return nil
}

func (s *Postgres) UpdateDonor(ctx context.Context, donor *models.Donor) error {
	return updateDonor(ctx, s.db, donor)
}

func updateDonor(ctx context.Context, q querier, donor *models.Donor) error {
	query := `
		UPDATE donors
		SET last_donation_date = $3, weight_kg = $4, active = $5,
			version = version + 1, updated_at = $6
		WHERE id = $1 AND version = $2
	`
	res, err := q.ExecContext(ctx, query,
		donor.ID.String(), donor.Version,
		nullTime(donor.LastDonationDate), donor.WeightKg, donor.Active, donor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update donor: %w", err)
	}
	if err := requireOneRow(res); err != nil {
		return err
	}
	donor.Version++
	return nil
}

// ----------------------------------------------------------------------------
// Requests
// ----------------------------------------------------------------------------

const requestColumns = `id, clinic_id, created_by, blood_type_needed, volume_ml, urgency,
	patient_info, needed_by, status, version, created_at, updated_at`

func scanRequest(row interface{ Scan(dest ...any) error }) (*models.DonationRequest, error) {
	var r models.DonationRequest
	var requestID, clinicID, createdBy string
	var bloodType, patientInfo sql.NullString
	if err := row.Scan(
		&requestID, &clinicID, &createdBy, &bloodType, &r.VolumeML, &r.Urgency,
		&patientInfo, &r.NeededBy, &r.Status, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsedRequest, err := id.ParseRequestID(requestID)
	if err != nil {
		return nil, fmt.Errorf("scan request id: %w", err)
	}
	parsedClinic, err := id.ParseClinicID(clinicID)
	if err != nil {
		return nil, fmt.Errorf("scan request clinic id: %w", err)
	}
	parsedCreator, err := id.ParseUserID(createdBy)
	if err != nil {
		return nil, fmt.Errorf("scan request creator id: %w", err)
	}
	r.ID = parsedRequest
	r.ClinicID = parsedClinic
	r.CreatedBy = parsedCreator
	r.PatientInfo = patientInfo.String
	if bloodType.Valid {
		bt := models.BloodType(bloodType.String)
		r.BloodTypeNeeded = &bt
	}
	return &r, nil
}

func (s *Postgres) GetRequest(ctx context.Context, requestID id.RequestID) (*models.DonationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM donation_requests WHERE id = $1`
	request, err := scanRequest(s.db.QueryRowContext(ctx, query, requestID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return request, nil
}

func (s *Postgres) CreateRequest(ctx context.Context, request *models.DonationRequest) error {
	query := `
		INSERT INTO donation_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $11)
	`
	var bloodType any
	if request.BloodTypeNeeded != nil {
		bloodType = string(*request.BloodTypeNeeded)
	}
	_, err := s.db.ExecContext(ctx, query,
		request.ID.String(), request.ClinicID.String(), request.CreatedBy.String(),
		bloodType, request.VolumeML, request.Urgency, nullString(request.PatientInfo),
		request.NeededBy, request.Status, request.CreatedAt, request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	request.Version = 1
	return nil
}

func (s *Postgres) UpdateRequest(ctx context.Context, request *models.DonationRequest) error {
	return updateRequest(ctx, s.db, request)
}

func updateRequest(ctx context.Context, q querier, request *models.DonationRequest) error {
	query := `
		UPDATE donation_requests
		SET status = $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $2
	`
	res, err := q.ExecContext(ctx, query,
		request.ID.String(), request.Version, request.Status, request.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if err := requireOneRow(res); err != nil {
		return err
	}
	request.Version++
	return nil
}

func (s *Postgres) ListOpenRequests(ctx context.Context, filter OpenRequestFilter) ([]models.DonationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM donation_requests WHERE status = $1`
	args := []any{string(models.RequestOpen)}
	if filter.Urgency != "" {
		args = append(args, string(filter.Urgency))
		query += fmt.Sprintf(" AND urgency = $%d", len(args))
	}
	if filter.BloodTypeNeeded != nil {
		args = append(args, string(*filter.BloodTypeNeeded))
		query += fmt.Sprintf(" AND blood_type_needed = $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	return s.queryRequests(ctx, query, args...)
}

func (s *Postgres) ListExpirableRequests(ctx context.Context, asOf time.Time) ([]models.DonationRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM donation_requests
		WHERE status = $1 AND needed_by < $2
		ORDER BY created_at ASC`
	return s.queryRequests(ctx, query, string(models.RequestOpen), asOf)
}

func (s *Postgres) queryRequests(ctx context.Context, query string, args ...any) ([]models.DonationRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var out []models.DonationRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request row: %w", err)
		}
		out = append(out, *request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Responses
// ----------------------------------------------------------------------------

const responseColumns = `id, request_id, donor_id, owner_id, status, message, version,
	created_at, updated_at`

func scanResponse(row interface{ Scan(dest ...any) error }) (*models.DonationResponse, error) {
	var r models.DonationResponse
	var responseID, requestID, donorID, ownerID string
	var message sql.NullString
	if err := row.Scan(
		&responseID, &requestID, &donorID, &ownerID, &r.Status, &message,
		&r.Version, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsedResponse, err := id.ParseResponseID(responseID)
	if err != nil {
		return nil, fmt.Errorf("scan response id: %w", err)
	}
	parsedRequest, err := id.ParseRequestID(requestID)
	if err != nil {
		return nil, fmt.Errorf("scan response request id: %w", err)
	}
	parsedDonor, err := id.ParseDonorID(donorID)
	if err != nil {
		return nil, fmt.Errorf("scan response donor id: %w", err)
	}
	parsedOwner, err := id.ParseUserID(ownerID)
	if err != nil {
		return nil, fmt.Errorf("scan response owner id: %w", err)
	}
	r.ID = parsedResponse
	r.RequestID = parsedRequest
	r.DonorID = parsedDonor
	r.OwnerID = parsedOwner
	r.Message = message.String
	return &r, nil
}

func (s *Postgres) GetResponse(ctx context.Context, responseID id.ResponseID) (*models.DonationResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM donation_responses WHERE id = $1`
	response, err := scanResponse(s.db.QueryRowContext(ctx, query, responseID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get response: %w", err)
	}
	return response, nil
}

// CreateResponse inserts a response. The uq_request_donor constraint makes
// the uniqueness check atomic with the insert; a violation is translated to
// ErrDuplicateResponse, never silently overwritten.
func (s *Postgres) CreateResponse(ctx context.Context, response *models.DonationResponse) error {
	query := `
		INSERT INTO donation_responses (` + responseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		response.ID.String(), response.RequestID.String(), response.DonorID.String(),
		response.OwnerID.String(), response.Status, nullString(response.Message),
		response.CreatedAt, response.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateResponse
		}
		return fmt.Errorf("create response: %w", err)
	}
	response.Version = 1
	return nil
}

func (s *Postgres) ListResponsesByRequest(ctx context.Context, requestID id.RequestID, status *models.ResponseStatus) ([]models.DonationResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM donation_responses WHERE request_id = $1`
	args := []any{requestID.String()}
	if status != nil {
		args = append(args, string(*status))
		query += " AND status = $2"
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var out []models.DonationResponse
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan response row: %w", err)
		}
		out = append(out, *response)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return out, nil
}

func updateResponse(ctx context.Context, q querier, response *models.DonationResponse) error {
	query := `
		UPDATE donation_responses
		SET status = $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $2
	`
	res, err := q.ExecContext(ctx, query,
		response.ID.String(), response.Version, response.Status, response.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update response: %w", err)
	}
	if err := requireOneRow(res); err != nil {
		return err
	}
	response.Version++
	return nil
}

// ----------------------------------------------------------------------------
// Completion
// ----------------------------------------------------------------------------

// ApplyCompletion writes the completion unit inside one transaction. Any
// version guard failing rolls back the whole unit with ErrVersionConflict.
func (s *Postgres) ApplyCompletion(ctx context.Context, c Completion) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin completion tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = updateResponse(ctx, tx, c.Response); err != nil {
		return err
	}
	if err = updateDonor(ctx, tx, c.Donor); err != nil {
		return err
	}
	if c.Request != nil {
		if err = updateRequest(ctx, tx, c.Request); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit completion tx: %w", err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// requireOneRow maps a zero-row conditional update to ErrVersionConflict.
func requireOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: strings.TrimSpace(s) != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
