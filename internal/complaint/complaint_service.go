// Package complaint implements the complaint lifecycle: ingest from the
// gateway, status updates by officers, and the citizen/department queries.
package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"urbandept/backend/internal/config"
	"urbandept/backend/internal/events"
	"urbandept/backend/internal/metrics"
	"urbandept/backend/internal/models"
	"urbandept/backend/internal/storage"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no complaint matches the requested ID or request ID.
	ErrNotFound = errors.New("complaint: not found")
	// ErrInvalidInput is returned when a required field is missing.
	ErrInvalidInput = errors.New("complaint: invalid input")
)

// Location is the place and text of a complaint as submitted by the citizen.
type Location struct {
	State     string
	City      string
	Area      string
	Address   string
	Complaint string
}

// IngestRequest is a new complaint forwarded by the gateway.
type IngestRequest struct {
	RequestID    string
	CitizenID    string
	CitizenName  string
	CitizenEmail string
	Location     Location
}

// StatusUpdate changes the lifecycle state of the complaint created for RequestID.
type StatusUpdate struct {
	RequestID   string
	Status      models.ComplaintStatus
	Remarks     string
	ProcessedBy *string
}

// Service handles the business logic for complaints.
type Service struct {
	Storage   storage.Storage
	Publisher events.Publisher
	Metrics   *metrics.Collector

	department   string
	citizenLimit int
	defaultLimit int
	maxLimit     int

	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.Publisher = p
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Service) { s.Metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("complaint_service")
		}
	}
}

func WithDepartment(department string) Option {
	return func(s *Service) { s.department = department }
}

// WithLimits sets the citizen query size and the default and maximum list sizes.
func WithLimits(citizen, listDefault, listMax int) Option {
	return func(s *Service) {
		if citizen > 0 {
			s.citizenLimit = citizen
		}
		if listDefault > 0 {
			s.defaultLimit = listDefault
		}
		if listMax > 0 {
			s.maxLimit = listMax
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new complaint service.
func NewService(s storage.Storage, opts ...Option) *Service {
	svc := &Service{
		Storage:      s,
		Publisher:    events.NopPublisher{},
		department:   config.DefaultDepartment,
		citizenLimit: config.DefaultCitizenQueryLimit,
		defaultLimit: config.DefaultListLimit,
		maxLimit:     config.DefaultListMaxLimit,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.maxLimit < svc.defaultLimit {
		svc.maxLimit = svc.defaultLimit
	}
	return svc
}

// Ingest stores a new complaint. The status is always PENDING regardless of input.
// Repeated calls with the same request ID create separate complaints.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*models.Complaint, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	complaint := &models.Complaint{
		NexusRequestID: req.RequestID,
		CitizenID:      req.CitizenID,
		CitizenName:    req.CitizenName,
		CitizenEmail:   req.CitizenEmail,
		State:          req.Location.State,
		City:           req.Location.City,
		Area:           req.Location.Area,
		Address:        req.Location.Address,
		Complaint:      req.Location.Complaint,
		Status:         models.StatusPending,
	}
	if err := s.Storage.CreateComplaint(ctx, complaint); err != nil {
		return nil, err
	}

	s.Metrics.RecordIngest()
	s.publish(ctx, events.Event{
		Type:        events.TypeComplaintCreated,
		ComplaintID: complaint.ID,
		RequestID:   complaint.NexusRequestID,
		CitizenID:   complaint.CitizenID,
		Status:      string(complaint.Status),
	})
	return complaint, nil
}

// UpdateStatus applies a status change to the complaint ingested for upd.RequestID.
// The transition itself is not validated; the store rejects values outside the enum.
// Concurrent updates of one complaint are last-write-wins.
func (s *Service) UpdateStatus(ctx context.Context, upd StatusUpdate) (*models.Complaint, error) {
	if strings.TrimSpace(upd.RequestID) == "" || upd.Status == "" {
		return nil, fmt.Errorf("%w: requestId and status are required", ErrInvalidInput)
	}

	complaint, err := s.Storage.GetComplaintByRequestID(ctx, upd.RequestID)
	if errors.Is(err, storage.ErrComplaintNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	previous := complaint.Status
	processedAt := s.now()
	complaint.Status = upd.Status
	complaint.Remarks = upd.Remarks
	complaint.ProcessedBy = upd.ProcessedBy
	complaint.ProcessedAt = &processedAt

	if err := s.Storage.SaveComplaint(ctx, complaint); err != nil {
		return nil, err
	}

	s.Metrics.RecordStatusUpdate(string(complaint.Status))
	s.publish(ctx, events.Event{
		Type:           events.TypeComplaintStatusChanged,
		ComplaintID:    complaint.ID,
		RequestID:      complaint.NexusRequestID,
		CitizenID:      complaint.CitizenID,
		Status:         string(complaint.Status),
		PreviousStatus: string(previous),
		ProcessedBy:    complaint.ProcessedBy,
	})
	return complaint, nil
}

// ByCitizen returns the citizen's most recent complaints, newest first.
func (s *Service) ByCitizen(ctx context.Context, citizenID string) ([]models.Complaint, error) {
	if strings.TrimSpace(citizenID) == "" {
		return nil, fmt.Errorf("%w: citizenId is required", ErrInvalidInput)
	}
	return s.Storage.ListComplaintsByCitizen(ctx, citizenID, s.citizenLimit)
}

// List returns complaints newest first, optionally filtered by exact status.
// A non-positive limit selects the default; larger limits are clamped to the maximum.
func (s *Service) List(ctx context.Context, status models.ComplaintStatus, limit int) ([]models.Complaint, error) {
	return s.Storage.ListComplaints(ctx, storage.ComplaintFilter{Status: status}, s.ListLimit(limit))
}

// ListLimit normalizes a requested list size.
func (s *Service) ListLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.defaultLimit
	case limit > s.maxLimit:
		return s.maxLimit
	default:
		return limit
	}
}

// ByID returns one complaint by its internal ID.
func (s *Service) ByID(ctx context.Context, id string) (*models.Complaint, error) {
	complaint, err := s.Storage.GetComplaintByID(ctx, id)
	if errors.Is(err, storage.ErrComplaintNotFound) {
		return nil, ErrNotFound
	}
	return complaint, err
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	event.Department = s.department
	event.OccurredAt = s.now().UTC()
	if err := s.Publisher.Publish(ctx, event); err != nil {
		s.Metrics.RecordPublishError()
		s.logger.Warn("Failed to publish complaint event",
			zap.String("type", event.Type),
			zap.String("complaint_id", event.ComplaintID),
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}

func (r IngestRequest) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"requestId", r.RequestID},
		{"citizenId", r.CitizenID},
		{"citizenName", r.CitizenName},
		{"data.state", r.Location.State},
		{"data.city", r.Location.City},
		{"data.area", r.Location.Area},
		{"data.address", r.Location.Address},
		{"data.complaint", r.Location.Complaint},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}
	return nil
}
