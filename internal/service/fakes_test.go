package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sciclub-api/internal/models"
	"github.com/noah-isme/sciclub-api/pkg/storage"
)

const (
	appOne = "a0000000-0000-4000-8000-000000000001"
	appTwo = "a0000000-0000-4000-8000-000000000002"
)

type recordingNotifier struct {
	mu          sync.Mutex
	sent        []Notification
	dispatched  []Notification
	sendErr     error
	dispatchErr error
	// failOn makes Send fail only for the named template.
	failOn string
}

func (n *recordingNotifier) Send(ctx context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil && (n.failOn == "" || n.failOn == msg.Template) {
		return n.sendErr
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) Dispatch(ctx context.Context, msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dispatched = append(n.dispatched, msg)
	return n.dispatchErr
}

type memoryFiles struct {
	files     map[string][]byte
	saveErr   error
	deleted   []string
	ensured   []string
	deleteErr error
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{files: make(map[string][]byte)}
}

func (f *memoryFiles) Save(ctx context.Context, name string, data []byte) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.files[name] = append([]byte(nil), data...)
	return name, nil
}

func (f *memoryFiles) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *memoryFiles) Delete(ctx context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.files, name)
	return nil
}

func (f *memoryFiles) EnsureDir(ctx context.Context, dir string) error {
	f.ensured = append(f.ensured, dir)
	return nil
}

// applicationStore is an in-memory stand-in for the application repository.
type applicationStore struct {
	byID      map[string]*models.Application
	seq       int
	findErr   error
	updateErr error
	listCalls []models.ApplicationFilter
}

func newApplicationStore(apps ...*models.Application) *applicationStore {
	s := &applicationStore{byID: make(map[string]*models.Application)}
	for _, app := range apps {
		s.byID[app.ID] = app
	}
	return s
}

func (s *applicationStore) FindByEmail(ctx context.Context, email string) (*models.Application, error) {
	for _, app := range s.byID {
		if app.Email == email {
			clone := *app
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *applicationStore) FindByID(ctx context.Context, id string) (*models.Application, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	app, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *app
	return &clone, nil
}

func (s *applicationStore) UpsertByEmail(ctx context.Context, sub models.ApplicationSubmission) (*models.Application, bool, error) {
	now := time.Now().UTC()
	for _, app := range s.byID {
		if app.Email == sub.Email {
			app.ApplicantName = sub.ApplicantName
			app.Designation = sub.Designation
			app.MemberSince = sub.MemberSince
			app.MemberTill = sub.MemberTill
			app.Impact = sub.Impact
			app.CertificateStatus = models.StatusPending
			app.UpdatedAt = now
			clone := *app
			return &clone, true, nil
		}
	}
	s.seq++
	app := &models.Application{
		ID:                fmt.Sprintf("a0000000-0000-4000-8000-%012d", s.seq),
		ApplicantName:     sub.ApplicantName,
		Email:             sub.Email,
		Designation:       sub.Designation,
		MemberSince:       sub.MemberSince,
		MemberTill:        sub.MemberTill,
		Impact:            sub.Impact,
		CertificateStatus: models.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.byID[app.ID] = app
	clone := *app
	return &clone, false, nil
}

func (s *applicationStore) UpdateReview(ctx context.Context, id string, review models.ApplicationReview) (*models.Application, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	app, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	app.Note = review.Note
	app.CertificateText = review.CertificateText
	app.CertificateStatus = review.Status
	app.TemplateID = review.TemplateID
	app.IssuedBy = review.IssuedBy
	app.CertificatePositions = review.CertificatePositions
	if review.CertificateFile != nil {
		app.CertificateFile = review.CertificateFile
	}
	clone := *app
	return &clone, nil
}

func (s *applicationStore) Approve(ctx context.Context, id, advisorID string, issuedAt time.Time) (*models.Application, error) {
	app, ok := s.byID[id]
	if !ok || app.CertificateStatus != models.StatusVerified {
		return nil, sql.ErrNoRows
	}
	app.CertificateStatus = models.StatusApproved
	app.IssuedBy = &advisorID
	app.IssueDate = &issuedAt
	clone := *app
	return &clone, nil
}

func (s *applicationStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	return nil
}

func (s *applicationStore) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, int, error) {
	s.listCalls = append(s.listCalls, filter)
	var out []models.Application
	for _, app := range s.byID {
		if filter.Status != nil && app.CertificateStatus != *filter.Status {
			continue
		}
		if filter.IssuedBy != "" && (app.IssuedBy == nil || *app.IssuedBy != filter.IssuedBy) {
			continue
		}
		out = append(out, *app)
	}
	return out, len(out), nil
}

type advisorStore map[string]*models.Advisor

func (s advisorStore) FindByID(ctx context.Context, id string) (*models.Advisor, error) {
	if a, ok := s[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (s advisorStore) FindByEmail(ctx context.Context, email string) (*models.Advisor, error) {
	for _, a := range s {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s advisorStore) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	for id, a := range s {
		if id != excludeID && strings.EqualFold(a.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (s advisorStore) UpdateProfile(ctx context.Context, advisor *models.Advisor) error {
	if _, ok := s[advisor.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *advisor
	s[advisor.ID] = &clone
	return nil
}

type templateStore map[string]*models.CertificateTemplate

func (s templateStore) FindByID(ctx context.Context, id string) (*models.CertificateTemplate, error) {
	if t, ok := s[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func strPtr(s string) *string { return &s }
