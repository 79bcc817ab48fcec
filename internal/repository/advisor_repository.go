package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sciclub-api/internal/models"
)

const advisorColumns = `id, advisor_name, email, department, designation, club_role, facebook_url, linkedin_url, profile_image, signature, password_hash, created_at, updated_at`

// AdvisorRepository reads advisor accounts referenced by applications.
type AdvisorRepository struct {
	db *sqlx.DB
}

// NewAdvisorRepository creates a new instance of AdvisorRepository.
func NewAdvisorRepository(db *sqlx.DB) *AdvisorRepository {
	return &AdvisorRepository{db: db}
}

// FindByID returns an advisor by identifier.
func (r *AdvisorRepository) FindByID(ctx context.Context, id string) (*models.Advisor, error) {
	return r.findOne(ctx, `SELECT `+advisorColumns+` FROM advisors WHERE id = $1 LIMIT 1`, id)
}

// FindByEmail returns an advisor by login email.
func (r *AdvisorRepository) FindByEmail(ctx context.Context, email string) (*models.Advisor, error) {
	return r.findOne(ctx, `SELECT `+advisorColumns+` FROM advisors WHERE email = $1 LIMIT 1`, email)
}

// Create inserts a new advisor account.
func (r *AdvisorRepository) Create(ctx context.Context, advisor *models.Advisor) error {
	if advisor.ID == "" {
		advisor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if advisor.CreatedAt.IsZero() {
		advisor.CreatedAt = now
	}
	advisor.UpdatedAt = now
	if advisor.ClubRole == "" {
		advisor.ClubRole = models.ClubRoleAdvisor
	}

	const query = `INSERT INTO advisors (id, advisor_name, email, department, designation, club_role, facebook_url, linkedin_url, profile_image, signature, password_hash, created_at, updated_at) VALUES (:id, :advisor_name, :email, :department, :designation, :club_role, :facebook_url, :linkedin_url, :profile_image, :signature, :password_hash, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, advisor); err != nil {
		return fmt.Errorf("create advisor: %w", err)
	}
	return nil
}

// EmailTaken reports whether another advisor already owns email.
func (r *AdvisorRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM advisors WHERE LOWER(email) = LOWER($1) AND id <> $2)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check advisor email uniqueness: %w", err)
	}
	return taken, nil
}

// UpdateProfile stores the self-service fields of an advisor. Club role and
// creation time are never touched.
func (r *AdvisorRepository) UpdateProfile(ctx context.Context, advisor *models.Advisor) error {
	advisor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE advisors SET advisor_name = :advisor_name, email = :email, department = :department, designation = :designation, facebook_url = :facebook_url, linkedin_url = :linkedin_url, profile_image = :profile_image, signature = :signature, password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, advisor)
	if err != nil {
		return fmt.Errorf("update advisor profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update advisor profile rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *AdvisorRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Advisor, error) {
	var advisor models.Advisor
	if err := r.db.GetContext(ctx, &advisor, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find advisor: %w", err)
	}
	return &advisor, nil
}
