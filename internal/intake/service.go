package intake

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/medisync/frontdesk/internal/triage"
	"github.com/medisync/frontdesk/pkg/config"
	"github.com/medisync/frontdesk/pkg/database"
	"github.com/medisync/frontdesk/pkg/interfaces"
	"github.com/medisync/frontdesk/pkg/logger"
	"github.com/medisync/frontdesk/pkg/monitoring"
	"github.com/medisync/frontdesk/pkg/notification"
	"github.com/medisync/frontdesk/pkg/realtime"
	"github.com/medisync/frontdesk/pkg/scheduler"
	"github.com/medisync/frontdesk/pkg/types"
)

// Service implements the IntakeService interface
type Service struct {
	config           *config.Config
	logger           *logger.Logger
	repository       interfaces.IntakeRepository
	scorer           interfaces.TriageScorer
	notifier         *AssignmentNotificationManager
	hub              *realtime.Hub
	feed             interfaces.ChangeFeed
	unsubscribes     []func()
	db               *database.DB
	server           *http.Server
	cron             *scheduler.Cron
	maxAssignRetries int
}

// New creates a new intake service wired to its collaborators
func New(cfg *config.Config, log *logger.Logger) (interfaces.IntakeService, error) {
	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Ensure schema and change triggers exist before listening
	if err := db.CreateSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	// Initialize repository
	repository := NewRepository(db, log)

	// Initialize triage scorer
	scorer := triage.NewScorer(&cfg.Triage, log)

	// Initialize notification manager
	sender := notification.NewResendClient(&cfg.Email, log)
	notifier := NewAssignmentNotificationManager(sender, log)

	// Initialize the change feed and dashboard hub
	feed, err := database.NewListener(&cfg.Database, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to start change feed: %w", err)
	}

	s := &Service{
		config:           cfg,
		logger:           log,
		repository:       repository,
		scorer:           scorer,
		notifier:         notifier,
		hub:              realtime.NewHub(30 * time.Second),
		feed:             feed,
		db:               db,
		maxAssignRetries: cfg.Assignment.MaxRetries,
	}

	s.wireChangeFeed()
	return s, nil
}

// wireChangeFeed forwards table change notifications to the SSE hub
func (s *Service) wireChangeFeed() {
	for _, table := range []string{"patients", "doctors", "emergency_alerts"} {
		table := table
		unsub := s.feed.Subscribe(table, func(op, id string) {
			s.hub.Broadcast(realtime.Event{Table: table, Op: op, ID: id})
		})
		s.unsubscribes = append(s.unsubscribes, unsub)
	}
}

// CheckIn runs the intake workflow for a new patient: create, score,
// alert-check, assign, notify. Only record creation is fatal; every
// later step degrades per policy and is reported as a warning.
func (s *Service) CheckIn(ctx context.Context, draft *types.PatientDraft) (*types.IntakeResult, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	// Step 1: create the patient record. Failure here aborts the
	// whole workflow.
	patient := &types.Patient{
		ID:            uuid.New().String(),
		FirstName:     draft.FirstName,
		LastName:      draft.LastName,
		DateOfBirth:   draft.DateOfBirth,
		ContactNumber: draft.ContactNumber,
		Email:         draft.Email,
		Symptoms:      draft.Symptoms,
		Vitals:        draft.Vitals,
		Status:        types.PatientWaiting,
		CreatedAt:     time.Now(),
		LastUpdated:   time.Now(),
	}

	if err := s.repository.CreatePatient(ctx, patient); err != nil {
		monitoring.RecordIntake("failed")
		return nil, fmt.Errorf("failed to create patient record: %w", err)
	}

	result := &types.IntakeResult{Patient: patient}

	// Step 2: score. The scorer degrades internally to the default
	// score, so the workflow never halts here.
	score := s.scorer.Score(ctx, patient.Symptoms, patient.Vitals)
	monitoring.RecordTriageScore(score)

	if err := s.repository.UpdatePatientTriage(ctx, patient.ID, score); err != nil {
		s.logger.WithError(err).Warnf("Failed to persist triage score for patient %s", patient.ID)
		result.Warnings = append(result.Warnings, "triage score could not be saved")
	}
	patient.TriageScore = &score

	// Step 3: alert check
	if ShouldAlert(score) {
		alert := BuildAlert(patient.ID, score, patient.Symptoms)
		if err := s.repository.CreateAlert(ctx, alert); err != nil {
			s.logger.WithError(err).Warnf("Failed to persist emergency alert for patient %s", patient.ID)
			result.Warnings = append(result.Warnings, "emergency alert could not be saved")
		} else {
			monitoring.RecordAlert()
			result.AlertID = alert.ID
		}
	}

	// Step 4: assignment
	doctor, err := s.assignDoctor(ctx, patient.ID, score)
	if err != nil {
		s.logger.WithError(err).Warnf("Doctor assignment failed for patient %s", patient.ID)
		result.Warnings = append(result.Warnings, "doctor assignment failed; patient remains in queue")
	}

	if doctor == nil {
		if err == nil {
			result.Warnings = append(result.Warnings, "no doctor available; patient remains in queue")
		}
		monitoring.RecordIntake("unassigned")
		s.logger.Intake(patient.ID, "done", true, map[string]interface{}{"assigned": false, "score": score})
		return result, nil
	}

	patient.AssignedDoctorID = &doctor.ID
	result.AssignedDoctor = doctor

	// Step 5: notify. Failure never reverts the assignment.
	if ok := s.notifier.NotifyAssignment(ctx, doctor, patient); !ok {
		result.Warnings = append(result.Warnings, "doctor notification could not be delivered")
	}

	monitoring.RecordIntake("assigned")
	s.logger.Intake(patient.ID, "done", true, map[string]interface{}{"assigned": true, "score": score})
	return result, nil
}

// RetryUnassigned re-runs assignment for scored, waiting patients that
// have no doctor yet. Returns how many patients were assigned.
func (s *Service) RetryUnassigned(ctx context.Context, limit int) (int, error) {
	patients, err := s.repository.GetPatients(ctx, &types.PatientFilters{
		Status:     types.PatientWaiting,
		Unassigned: true,
		Limit:      limit,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load unassigned patients: %w", err)
	}

	assigned := 0
	for _, patient := range patients {
		score := 0
		if patient.TriageScore != nil {
			score = *patient.TriageScore
		}

		doctor, err := s.assignDoctor(ctx, patient.ID, score)
		if err != nil {
			s.logger.WithError(err).Warnf("Retry assignment failed for patient %s", patient.ID)
			continue
		}
		if doctor == nil {
			// The directory is exhausted; later patients cannot do
			// better this round.
			break
		}

		patient.AssignedDoctorID = &doctor.ID
		s.notifier.NotifyAssignment(ctx, doctor, patient)
		assigned++
	}

	return assigned, nil
}

// GetQueue returns patients for the queue view
func (s *Service) GetQueue(ctx context.Context, filters *types.PatientFilters) ([]*types.Patient, error) {
	return s.repository.GetPatients(ctx, filters)
}

// GetPatient retrieves a single patient
func (s *Service) GetPatient(ctx context.Context, patientID string) (*types.Patient, error) {
	return s.repository.GetPatientByID(ctx, patientID)
}

// UpdatePatientStatus moves a patient through the treatment lifecycle
func (s *Service) UpdatePatientStatus(ctx context.Context, patientID string, status types.PatientStatus) error {
	switch status {
	case types.PatientWaiting, types.PatientInTreatment, types.PatientDischarged:
	default:
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("invalid patient status: %s", status), nil)
	}

	return s.repository.UpdatePatientStatus(ctx, patientID, status)
}

// ListDoctors returns the doctor directory
func (s *Service) ListDoctors(ctx context.Context) ([]*types.Doctor, error) {
	return s.repository.ListDoctors(ctx)
}

// GetDoctor retrieves a single doctor from the directory
func (s *Service) GetDoctor(ctx context.Context, doctorID string) (*types.Doctor, error) {
	return s.repository.GetDoctorByID(ctx, doctorID)
}

// SetDoctorAvailability toggles a doctor's availability
func (s *Service) SetDoctorAvailability(ctx context.Context, doctorID string, available bool) error {
	return s.repository.SetDoctorAvailability(ctx, doctorID, available)
}

// RecordDoctorActivity records a doctor activity heartbeat
func (s *Service) RecordDoctorActivity(ctx context.Context, doctorID string) error {
	return s.repository.TouchDoctorActivity(ctx, doctorID)
}

// GetRecentAlerts returns the most recent emergency alerts
func (s *Service) GetRecentAlerts(ctx context.Context, limit int) ([]*types.EmergencyAlert, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.repository.GetRecentAlerts(ctx, limit)
}

// AcknowledgeAlert marks a pending alert as acknowledged by a staff member
func (s *Service) AcknowledgeAlert(ctx context.Context, alertID, staffID string) error {
	return s.repository.UpdateAlertStatus(ctx, alertID, types.AlertAcknowledged, staffID)
}

// ResolveAlert marks an alert as resolved
func (s *Service) ResolveAlert(ctx context.Context, alertID string) error {
	return s.repository.UpdateAlertStatus(ctx, alertID, types.AlertResolved, "")
}

// EscalateAlert flags an alert as escalated
func (s *Service) EscalateAlert(ctx context.Context, alertID string) error {
	return s.repository.EscalateAlert(ctx, alertID)
}

// Start starts the front-desk HTTP server
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	if err := s.startJobs(); err != nil {
		return err
	}

	// No write timeout: the events route holds long-lived SSE streams
	s.server = &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: time.Duration(s.config.Server.ReadTimeout) * time.Second,
		IdleTimeout: time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.Infof("Starting front-desk service on %s", addr)
	return s.server.ListenAndServe()
}

// Stop stops the front-desk service
func (s *Service) Stop(ctx context.Context) error {
	if s.cron != nil {
		s.cron.Stop()
	}

	for _, unsub := range s.unsubscribes {
		unsub()
	}

	if closer, ok := s.feed.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close change feed")
		}
	}

	if s.server != nil {
		s.logger.Info("Stopping front-desk service")
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// validateDraft validates the check-in payload
func validateDraft(draft *types.PatientDraft) error {
	if draft.FirstName == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "first name is required", nil)
	}

	if draft.LastName == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "last name is required", nil)
	}

	if draft.DateOfBirth == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "date of birth is required", nil)
	}

	if draft.Symptoms == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "symptoms are required", nil)
	}

	return nil
}
