package handler

import (
	"context"
	"fmt"
	"strings"

	"urbandept/backend/internal/complaint"
	"urbandept/backend/internal/metrics"
	"urbandept/backend/internal/models"

	"go.uber.org/zap"
)

// ComplaintService is the lifecycle API the handlers drive.
type ComplaintService interface {
	Ingest(ctx context.Context, req complaint.IngestRequest) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, upd complaint.StatusUpdate) (*models.Complaint, error)
	ByCitizen(ctx context.Context, citizenID string) ([]models.Complaint, error)
	List(ctx context.Context, status models.ComplaintStatus, limit int) ([]models.Complaint, error)
	ByID(ctx context.Context, id string) (*models.Complaint, error)
}

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies of the internal API.
type Handler struct {
	Complaints ComplaintService
	Store      Pinger
	Metrics    *metrics.Collector

	department string
	logger     *zap.Logger
}

func NewHandler(complaints ComplaintService, store Pinger, m *metrics.Collector, department string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Complaints: complaints,
		Store:      store,
		Metrics:    m,
		department: department,
		logger:     logger.Named("complaint_handler"),
	}
}

// receiptRemarks is the acknowledgement the gateway relays to the citizen after ingest.
func (h *Handler) receiptRemarks() string {
	return fmt.Sprintf("Your complaint has been received and is pending review by our %s services team.",
		strings.ToLower(h.department))
}
