package intake

import (
	"context"
	"fmt"

	"github.com/medisync/frontdesk/pkg/interfaces"
	"github.com/medisync/frontdesk/pkg/logger"
	"github.com/medisync/frontdesk/pkg/monitoring"
	"github.com/medisync/frontdesk/pkg/types"
)

// AssignmentNotificationManager formats and sends doctor assignment
// notifications. Send failures are logged and absorbed; they never
// revert an assignment that already happened.
type AssignmentNotificationManager struct {
	sender interfaces.EmailSender
	logger *logger.Logger
}

// NewAssignmentNotificationManager creates a new notification manager
func NewAssignmentNotificationManager(sender interfaces.EmailSender, log *logger.Logger) *AssignmentNotificationManager {
	return &AssignmentNotificationManager{
		sender: sender,
		logger: log,
	}
}

// NotifyAssignment emails the assigned doctor about their new patient.
// Returns true when the notification was delivered.
func (m *AssignmentNotificationManager) NotifyAssignment(ctx context.Context, doctor *types.Doctor, patient *types.Patient) bool {
	score := 0
	if patient.TriageScore != nil {
		score = *patient.TriageScore
	}

	subject := fmt.Sprintf("New Patient Assignment - Triage Score: %d", score)
	body := fmt.Sprintf(`
		<h2>New Patient Assigned</h2>
		<p>Patient: %s %s</p>
		<p>Triage Score: %d</p>
		<p>Symptoms: %s</p>
		<p>Please check your dashboard for complete details.</p>
	`, patient.FirstName, patient.LastName, score, patient.Symptoms)

	if err := m.sender.Send(ctx, doctor.Email, subject, body); err != nil {
		m.logger.WithError(err).Warnf("Failed to notify doctor %s about patient %s",
			doctor.ID, patient.ID)
		monitoring.RecordNotification("failed")
		return false
	}

	monitoring.RecordNotification("sent")
	m.logger.Infof("Notified doctor %s about patient %s", doctor.ID, patient.ID)
	return true
}
