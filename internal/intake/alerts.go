package intake

import (
	"github.com/google/uuid"

	"github.com/medisync/frontdesk/pkg/types"
)

// alertThreshold is the triage score at or above which an emergency
// alert is created. Hard boundary: 7 produces none, 8 produces one.
const alertThreshold = 8

// ShouldAlert reports whether a triage score warrants an emergency alert
func ShouldAlert(score int) bool {
	return score >= alertThreshold
}

// BuildAlert constructs the alert draft for a high-severity patient
func BuildAlert(patientID string, score int, symptoms string) *types.EmergencyAlert {
	return &types.EmergencyAlert{
		ID:          uuid.New().String(),
		PatientID:   patientID,
		Severity:    score,
		Description: "High risk patient: " + symptoms,
		Status:      types.AlertPending,
		Escalated:   false,
	}
}
