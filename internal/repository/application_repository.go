package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sciclub-api/internal/models"
)

const applicationColumns = `id, applicant_name, email, designation, member_since, member_till, impact, certificate_status, note, certificate_text, template_id, issued_by, issue_date, certificate_positions, certificate_file, created_at, updated_at`

// ApplicationRepository persists certificate applications keyed by applicant email.
type ApplicationRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewApplicationRepository creates a new instance of ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// FindByEmail returns the application submitted with the given email.
func (r *ApplicationRepository) FindByEmail(ctx context.Context, email string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE email = $1 LIMIT 1`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find application by email: %w", err)
	}
	return &app, nil
}

// FindByID returns an application by identifier.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 LIMIT 1`
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find application by id: %w", err)
	}
	return &app, nil
}

type upsertedApplication struct {
	models.Application
	WasUpdate bool `db:"was_update"`
}

// UpsertByEmail inserts a pending application or updates the row already
// holding this email, resetting its status to pending. The flag reports
// whether an existing row was updated.
func (r *ApplicationRepository) UpsertByEmail(ctx context.Context, sub models.ApplicationSubmission) (*models.Application, bool, error) {
	now := r.now()
	query := `INSERT INTO applications (id, applicant_name, email, designation, member_since, member_till, impact, certificate_status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, $8)
ON CONFLICT (email) DO UPDATE SET applicant_name = EXCLUDED.applicant_name, designation = EXCLUDED.designation, member_since = EXCLUDED.member_since, member_till = EXCLUDED.member_till, impact = EXCLUDED.impact, certificate_status = 'pending', updated_at = EXCLUDED.updated_at
RETURNING ` + applicationColumns + `, (xmax <> 0) AS was_update`

	var row upsertedApplication
	err := r.db.GetContext(ctx, &row, query,
		uuid.NewString(),
		sub.ApplicantName,
		sub.Email,
		sub.Designation,
		sub.MemberSince,
		sub.MemberTill,
		sub.Impact,
		now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert application: %w", err)
	}
	app := row.Application
	return &app, row.WasUpdate, nil
}

// UpdateReview applies admin workflow edits. A nil CertificateFile keeps the stored path.
func (r *ApplicationRepository) UpdateReview(ctx context.Context, id string, review models.ApplicationReview) (*models.Application, error) {
	query := `UPDATE applications SET note = $2, certificate_text = $3, certificate_status = $4, template_id = $5, issued_by = $6, certificate_positions = $7, certificate_file = COALESCE($8, certificate_file), updated_at = $9
WHERE id = $1
RETURNING ` + applicationColumns

	var app models.Application
	err := r.db.GetContext(ctx, &app, query,
		id,
		review.Note,
		review.CertificateText,
		review.Status,
		review.TemplateID,
		review.IssuedBy,
		review.CertificatePositions,
		review.CertificateFile,
		r.now(),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update application review: %w", err)
	}
	return &app, nil
}

// Approve stamps an approved status on a verified application. It returns
// sql.ErrNoRows when the row is absent or no longer verified.
func (r *ApplicationRepository) Approve(ctx context.Context, id, advisorID string, issuedAt time.Time) (*models.Application, error) {
	query := `UPDATE applications SET certificate_status = 'approved', issued_by = $2, issue_date = $3, updated_at = $3
WHERE id = $1 AND certificate_status = 'verified'
RETURNING ` + applicationColumns

	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id, advisorID, issuedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("approve application: %w", err)
	}
	return &app, nil
}

// Delete hard deletes an application.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete application rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns applications matching the filter with the total count.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	baseQuery := `FROM applications WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("certificate_status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.IssuedBy != "" {
		conditions = append(conditions, fmt.Sprintf("issued_by = $%d", len(args)+1))
		args = append(args, filter.IssuedBy)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(applicant_name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(designation) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"applicant_name":     true,
		"email":              true,
		"certificate_status": true,
		"created_at":         true,
		"updated_at":         true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", applicationColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	return apps, total, nil
}
