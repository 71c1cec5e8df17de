package types

import "time"

// AlertStatus represents emergency alert status values
type AlertStatus string

const (
	AlertPending      AlertStatus = "pending"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// EmergencyAlert flags a high-severity patient for staff attention
type EmergencyAlert struct {
	ID             string      `json:"id" db:"id"`
	PatientID      string      `json:"patient_id" db:"patient_id"`
	Severity       int         `json:"severity" db:"severity"`
	Description    string      `json:"description" db:"description"`
	Status         AlertStatus `json:"status" db:"status"`
	AcknowledgedBy *string     `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty" db:"resolved_at"`
	Escalated      bool        `json:"escalated" db:"escalated"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}
