package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ComplaintStatus is the lifecycle state of a complaint.
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "PENDING"
	StatusInProgress ComplaintStatus = "IN_PROGRESS"
	StatusCompleted  ComplaintStatus = "COMPLETED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Complaint is a citizen complaint forwarded by the Nexus gateway.
// Only the status fields (Status, Remarks, ProcessedBy, ProcessedAt) change after creation.
type Complaint struct {
	// ID is assigned by BeforeCreate and never changes.
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	// NexusRequestID is the gateway's correlation key for its own request record.
	NexusRequestID string `gorm:"type:varchar(128);not null;index" json:"nexusRequestId"`

	CitizenID    string `gorm:"type:varchar(128);not null;index:idx_complaints_citizen_created,priority:1" json:"citizenId"`
	CitizenName  string `gorm:"type:text;not null" json:"citizenName"`
	CitizenEmail string `gorm:"type:text" json:"citizenEmail,omitempty"`

	State     string `gorm:"type:text;not null" json:"state"`
	City      string `gorm:"type:text;not null" json:"city"`
	Area      string `gorm:"type:text;not null" json:"area"`
	Address   string `gorm:"type:text;not null" json:"address"`
	Complaint string `gorm:"type:text;not null" json:"complaint"`

	// Status is restricted to the three lifecycle values by a CHECK constraint.
	Status      ComplaintStatus `gorm:"type:varchar(20);not null;default:PENDING;index;check:chk_complaints_status,status IN ('PENDING','IN_PROGRESS','COMPLETED')" json:"status"`
	Remarks     string          `gorm:"type:text;not null;default:''" json:"remarks"`
	ProcessedBy *string         `gorm:"type:text" json:"processedBy"`
	ProcessedAt *time.Time      `json:"processedAt"`

	CreatedAt time.Time `gorm:"index:idx_complaints_citizen_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate generates the internal ID and applies the initial status.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	return
}
