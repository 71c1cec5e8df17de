package interfaces

import (
	"context"

	"github.com/medisync/frontdesk/pkg/types"
)

// IntakeService defines the interface for the patient intake workflow
type IntakeService interface {
	// Intake workflow
	CheckIn(ctx context.Context, draft *types.PatientDraft) (*types.IntakeResult, error)
	RetryUnassigned(ctx context.Context, limit int) (int, error)

	// Queue and patient management
	GetQueue(ctx context.Context, filters *types.PatientFilters) ([]*types.Patient, error)
	GetPatient(ctx context.Context, patientID string) (*types.Patient, error)
	UpdatePatientStatus(ctx context.Context, patientID string, status types.PatientStatus) error

	// Doctor directory
	ListDoctors(ctx context.Context) ([]*types.Doctor, error)
	GetDoctor(ctx context.Context, doctorID string) (*types.Doctor, error)
	SetDoctorAvailability(ctx context.Context, doctorID string, available bool) error
	RecordDoctorActivity(ctx context.Context, doctorID string) error

	// Emergency alerts
	GetRecentAlerts(ctx context.Context, limit int) ([]*types.EmergencyAlert, error)
	AcknowledgeAlert(ctx context.Context, alertID, staffID string) error
	ResolveAlert(ctx context.Context, alertID string) error
	EscalateAlert(ctx context.Context, alertID string) error

	// Service management
	Start(addr string) error
	Stop(ctx context.Context) error
}

// IntakeRepository defines the interface for intake data persistence
type IntakeRepository interface {
	// Patients
	CreatePatient(ctx context.Context, p *types.Patient) error
	GetPatientByID(ctx context.Context, id string) (*types.Patient, error)
	UpdatePatientTriage(ctx context.Context, id string, score int) error
	AssignPatient(ctx context.Context, patientID, doctorID string) error
	UpdatePatientStatus(ctx context.Context, id string, status types.PatientStatus) error
	GetPatients(ctx context.Context, filters *types.PatientFilters) ([]*types.Patient, error)

	// Doctors
	GetAvailableDoctors(ctx context.Context) ([]*types.Doctor, error)
	ListDoctors(ctx context.Context) ([]*types.Doctor, error)
	GetDoctorByID(ctx context.Context, id string) (*types.Doctor, error)
	UpdateDoctorLoad(ctx context.Context, doctorID string, oldLoad, newLoad int) error
	ReleaseDoctorLoad(ctx context.Context, doctorID string, oldLoad, newLoad int) error
	SetDoctorAvailability(ctx context.Context, doctorID string, available bool) error
	TouchDoctorActivity(ctx context.Context, doctorID string) error
	MarkInactiveDoctorsUnavailable(ctx context.Context, inactiveMinutes int) (int, error)

	// Alerts
	CreateAlert(ctx context.Context, alert *types.EmergencyAlert) error
	GetRecentAlerts(ctx context.Context, limit int) ([]*types.EmergencyAlert, error)
	UpdateAlertStatus(ctx context.Context, alertID string, status types.AlertStatus, staffID string) error
	EscalateAlert(ctx context.Context, alertID string) error
}

// TriageScorer rates symptoms and vitals on a 1-10 severity scale.
// Implementations must degrade to a default score instead of failing.
type TriageScorer interface {
	Score(ctx context.Context, symptoms string, vitals *types.Vitals) int
}

// EmailSender sends a transactional email to a single recipient
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ChangeFeed distributes table change notifications to subscribers.
// The returned function unsubscribes the callback.
type ChangeFeed interface {
	Subscribe(table string, callback func(op, id string)) (unsubscribe func())
}
