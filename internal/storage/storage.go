// Package storage is the Complaint Record Store: a GORM repository over the
// complaints table.
package storage

import (
	"context"

	"urbandept/backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrComplaintNotFound is returned when no complaint matches a lookup.
var ErrComplaintNotFound = errors.New("storage: complaint not found")

// ComplaintFilter narrows ListComplaints. Zero values match everything.
type ComplaintFilter struct {
	Status models.ComplaintStatus
}

type Storage interface {
	CreateComplaint(ctx context.Context, complaint *models.Complaint) error
	SaveComplaint(ctx context.Context, complaint *models.Complaint) error

	GetComplaintByID(ctx context.Context, id string) (*models.Complaint, error)
	GetComplaintByRequestID(ctx context.Context, requestID string) (*models.Complaint, error)

	ListComplaintsByCitizen(ctx context.Context, citizenID string, limit int) ([]models.Complaint, error)
	ListComplaints(ctx context.Context, filter ComplaintFilter, limit int) ([]models.Complaint, error)

	Ping(ctx context.Context) error
}

type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates or updates the complaints table and its indexes.
func (s *Service) Migrate() error {
	return errors.Wrap(s.DB.AutoMigrate(&models.Complaint{}), "storage: migrate complaints")
}

// CreateComplaint inserts a new complaint in a single statement.
func (s *Service) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	if err := s.DB.WithContext(ctx).Create(complaint).Error; err != nil {
		return errors.Wrapf(err, "storage: create complaint for request %s", complaint.NexusRequestID)
	}
	return nil
}

// SaveComplaint writes every column of an existing complaint.
func (s *Service) SaveComplaint(ctx context.Context, complaint *models.Complaint) error {
	if err := s.DB.WithContext(ctx).Save(complaint).Error; err != nil {
		return errors.Wrapf(err, "storage: save complaint %s", complaint.ID)
	}
	return nil
}

func (s *Service) GetComplaintByID(ctx context.Context, id string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&complaint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrComplaintNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "storage: get complaint %s", id)
	}
	return &complaint, nil
}

// GetComplaintByRequestID returns the first complaint ingested for requestID.
// Repeated ingests of one request create several rows; the oldest one wins.
func (s *Service) GetComplaintByRequestID(ctx context.Context, requestID string) (*models.Complaint, error) {
	var complaint models.Complaint
	err := s.DB.WithContext(ctx).
		Where("nexus_request_id = ?", requestID).
		Order("created_at asc").Order("id asc").
		First(&complaint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrComplaintNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "storage: get complaint by request %s", requestID)
	}
	return &complaint, nil
}

// ListComplaintsByCitizen returns at most limit complaints of a citizen, newest first.
func (s *Service) ListComplaintsByCitizen(ctx context.Context, citizenID string, limit int) ([]models.Complaint, error) {
	complaints := []models.Complaint{}
	err := s.DB.WithContext(ctx).
		Where("citizen_id = ?", citizenID).
		Order("created_at desc").Order("id desc").
		Limit(limit).
		Find(&complaints).Error
	if err != nil {
		return nil, errors.Wrapf(err, "storage: list complaints of citizen %s", citizenID)
	}
	return complaints, nil
}

// ListComplaints returns at most limit complaints matching filter, newest first.
func (s *Service) ListComplaints(ctx context.Context, filter ComplaintFilter, limit int) ([]models.Complaint, error) {
	complaints := []models.Complaint{}
	query := s.DB.WithContext(ctx).Model(&models.Complaint{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if err := query.Order("created_at desc").Order("id desc").Limit(limit).Find(&complaints).Error; err != nil {
		return nil, errors.Wrap(err, "storage: list complaints")
	}
	return complaints, nil
}

// Ping checks that the underlying database answers.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return errors.Wrap(err, "storage: get sql handle")
	}
	return sqlDB.PingContext(ctx)
}
