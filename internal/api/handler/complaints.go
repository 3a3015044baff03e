package handler

import (
	"errors"
	"net/http"
	"strconv"

	"urbandept/backend/internal/complaint"
	"urbandept/backend/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgInvalidPayload  = "Invalid request payload."
	msgNotFound        = "Complaint not found."
	msgIngestFailed    = "Failed to process complaint request."
	msgUpdateFailed    = "Failed to update complaint status."
	msgFetchAllFailed  = "Failed to fetch complaints."
	msgFetchOneFailed  = "Failed to fetch complaint."
	msgStatusUpdated   = "Complaint status updated."
	msgCitizenRequired = "Citizen ID is required."
)

// CitizenIDHeader carries the citizen identity asserted by the gateway.
const CitizenIDHeader = "x-citizen-id"

type locationData struct {
	State     string `json:"state" binding:"required"`
	City      string `json:"city" binding:"required"`
	Area      string `json:"area" binding:"required"`
	Address   string `json:"address" binding:"required"`
	Complaint string `json:"complaint" binding:"required"`
}

type ingestRequest struct {
	RequestID    string        `json:"requestId" binding:"required"`
	CitizenID    string        `json:"citizenId" binding:"required"`
	CitizenName  string        `json:"citizenName" binding:"required"`
	CitizenEmail string        `json:"citizenEmail"`
	Data         *locationData `json:"data" binding:"required"`
}

type updateStatusRequest struct {
	RequestID   string                 `json:"requestId" binding:"required"`
	Status      models.ComplaintStatus `json:"status" binding:"required"`
	Remarks     string                 `json:"remarks"`
	ProcessedBy *string                `json:"processedBy"`
}

// ingestResponseData is the receipt summary forwarded to the citizen.
type ingestResponseData struct {
	ComplaintID string                 `json:"complaintId"`
	State       string                 `json:"state"`
	City        string                 `json:"city"`
	Area        string                 `json:"area"`
	Status      models.ComplaintStatus `json:"status"`
}

// Ingest handles POST /complaints.
func (h *Handler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid ingest payload", zap.Error(err))
		h.fail(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	created, err := h.Complaints.Ingest(c.Request.Context(), complaint.IngestRequest{
		RequestID:    req.RequestID,
		CitizenID:    req.CitizenID,
		CitizenName:  req.CitizenName,
		CitizenEmail: req.CitizenEmail,
		Location: complaint.Location{
			State:     req.Data.State,
			City:      req.Data.City,
			Area:      req.Data.Area,
			Address:   req.Data.Address,
			Complaint: req.Data.Complaint,
		},
	})
	if errors.Is(err, complaint.ErrInvalidInput) {
		h.logger.Warn("Rejected ingest payload", zap.String("request_id", req.RequestID), zap.Error(err))
		h.fail(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if err != nil {
		h.logger.Error("Process complaint error",
			zap.String("request_id", req.RequestID),
			zap.String("citizen_id", req.CitizenID),
			zap.Error(err))
		h.Metrics.RecordFailure("ingest")
		h.fail(c, http.StatusInternalServerError, msgIngestFailed)
		return
	}

	h.logger.Info("Complaint ingested",
		zap.String("complaint_id", created.ID),
		zap.String("request_id", created.NexusRequestID))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  created.Status,
		"remarks": h.receiptRemarks(),
		"responseData": ingestResponseData{
			ComplaintID: created.ID,
			State:       created.State,
			City:        created.City,
			Area:        created.Area,
			Status:      created.Status,
		},
	})
}

// UpdateStatus handles POST /update-status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid update-status payload", zap.Error(err))
		h.fail(c, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	updated, err := h.Complaints.UpdateStatus(c.Request.Context(), complaint.StatusUpdate{
		RequestID:   req.RequestID,
		Status:      req.Status,
		Remarks:     req.Remarks,
		ProcessedBy: req.ProcessedBy,
	})
	switch {
	case errors.Is(err, complaint.ErrNotFound):
		h.fail(c, http.StatusNotFound, msgNotFound)
		return
	case errors.Is(err, complaint.ErrInvalidInput):
		h.fail(c, http.StatusBadRequest, msgInvalidPayload)
		return
	case err != nil:
		h.logger.Error("Update status error",
			zap.String("request_id", req.RequestID),
			zap.String("status", string(req.Status)),
			zap.Error(err))
		h.Metrics.RecordFailure("update_status")
		h.fail(c, http.StatusInternalServerError, msgUpdateFailed)
		return
	}

	h.logger.Info("Complaint status updated",
		zap.String("complaint_id", updated.ID),
		zap.String("status", string(updated.Status)))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msgStatusUpdated,
		"data":    updated,
	})
}

// ByCitizen handles GET /complaints/citizen. The header wins over the query parameter.
func (h *Handler) ByCitizen(c *gin.Context) {
	citizenID := c.GetHeader(CitizenIDHeader)
	if citizenID == "" {
		citizenID = c.Query("citizenId")
	}
	if citizenID == "" {
		h.fail(c, http.StatusBadRequest, msgCitizenRequired)
		return
	}

	complaints, err := h.Complaints.ByCitizen(c.Request.Context(), citizenID)
	if errors.Is(err, complaint.ErrInvalidInput) {
		h.fail(c, http.StatusBadRequest, msgCitizenRequired)
		return
	}
	if err != nil {
		h.logger.Error("Get citizen complaints error", zap.String("citizen_id", citizenID), zap.Error(err))
		h.Metrics.RecordFailure("query_by_citizen")
		h.fail(c, http.StatusInternalServerError, msgFetchAllFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": complaints})
}

// List handles GET /complaints with optional status and limit query parameters.
func (h *Handler) List(c *gin.Context) {
	status := models.ComplaintStatus(c.Query("status"))

	// unparsable limits fall back to the default
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = 0
	}

	complaints, err := h.Complaints.List(c.Request.Context(), status, limit)
	if err != nil {
		h.logger.Error("Get all complaints error", zap.String("status", string(status)), zap.Error(err))
		h.Metrics.RecordFailure("query_all")
		h.fail(c, http.StatusInternalServerError, msgFetchAllFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": complaints})
}

// ByID handles GET /complaints/:id.
func (h *Handler) ByID(c *gin.Context) {
	id := c.Param("id")

	found, err := h.Complaints.ByID(c.Request.Context(), id)
	if errors.Is(err, complaint.ErrNotFound) {
		h.fail(c, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Get complaint error", zap.String("complaint_id", id), zap.Error(err))
		h.Metrics.RecordFailure("query_by_id")
		h.fail(c, http.StatusInternalServerError, msgFetchOneFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": found})
}

func (h *Handler) fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}
