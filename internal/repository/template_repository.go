package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sciclub-api/internal/models"
)

// TemplateRepository reads certificate background templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new instance of TemplateRepository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// FindByID returns a certificate template by identifier.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.CertificateTemplate, error) {
	const query = `SELECT id, name, image_path, created_at, updated_at FROM certificate_templates WHERE id = $1 LIMIT 1`
	var tpl models.CertificateTemplate
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find certificate template: %w", err)
	}
	return &tpl, nil
}
