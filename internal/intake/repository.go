package intake

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/medisync/frontdesk/pkg/database"
	"github.com/medisync/frontdesk/pkg/interfaces"
	"github.com/medisync/frontdesk/pkg/logger"
	"github.com/medisync/frontdesk/pkg/types"
)

// Repository implements the IntakeRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new intake repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.IntakeRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

const patientColumns = `id, first_name, last_name, date_of_birth, contact_number, email,
	   symptoms, vitals, triage_score, assigned_doctor_id, status, created_at, last_updated`

// CreatePatient persists a new patient record
func (r *Repository) CreatePatient(ctx context.Context, p *types.Patient) error {
	var vitalsJSON interface{}
	if !p.Vitals.IsEmpty() {
		b, err := json.Marshal(p.Vitals)
		if err != nil {
			return fmt.Errorf("failed to marshal vitals: %w", err)
		}
		vitalsJSON = b
	}

	query := `
		INSERT INTO patients (
			id, first_name, last_name, date_of_birth, contact_number, email,
			symptoms, vitals, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.FirstName,
		p.LastName,
		p.DateOfBirth,
		nullIfEmpty(p.ContactNumber),
		nullIfEmpty(p.Email),
		p.Symptoms,
		vitalsJSON,
		string(p.Status),
	)

	if err != nil {
		r.logger.Errorf("Failed to create patient: %v", err)
		return fmt.Errorf("failed to create patient: %w", err)
	}

	r.logger.Infof("Created patient %s with status %s", p.ID, p.Status)
	return nil
}

// GetPatientByID retrieves a patient by ID
func (r *Repository) GetPatientByID(ctx context.Context, id string) (*types.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE id = $1`, patientColumns)

	p, err := scanPatient(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("patient not found: %s", id))
		}
		r.logger.Errorf("Failed to get patient %s: %v", id, err)
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return p, nil
}

// UpdatePatientTriage attaches the triage score to a patient. The score
// is written exactly once; a second write is rejected as a conflict.
func (r *Repository) UpdatePatientTriage(ctx context.Context, id string, score int) error {
	query := `
		UPDATE patients SET triage_score = $1, last_updated = $2
		WHERE id = $3 AND triage_score IS NULL`

	result, err := r.db.ExecContext(ctx, query, score, time.Now(), id)
	if err != nil {
		r.logger.Errorf("Failed to update triage score for patient %s: %v", id, err)
		return fmt.Errorf("failed to update triage score: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &types.FrontdeskError{
			Type:    types.ErrorTypeConflict,
			Code:    types.ErrCodeConflict,
			Message: fmt.Sprintf("patient %s not found or already scored", id),
		}
	}

	r.logger.Infof("Recorded triage score %d for patient %s", score, id)
	return nil
}

// AssignPatient records the patient's assigned doctor
func (r *Repository) AssignPatient(ctx context.Context, patientID, doctorID string) error {
	query := `
		UPDATE patients SET assigned_doctor_id = $1, last_updated = $2
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, doctorID, time.Now(), patientID)
	if err != nil {
		r.logger.Errorf("Failed to assign patient %s to doctor %s: %v", patientID, doctorID, err)
		return fmt.Errorf("failed to assign patient: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("patient not found: %s", patientID))
	}

	return nil
}

// UpdatePatientStatus moves a patient through the treatment lifecycle
func (r *Repository) UpdatePatientStatus(ctx context.Context, id string, status types.PatientStatus) error {
	query := `UPDATE patients SET status = $1, last_updated = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, string(status), time.Now(), id)
	if err != nil {
		r.logger.Errorf("Failed to update status for patient %s: %v", id, err)
		return fmt.Errorf("failed to update patient status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("patient not found: %s", id))
	}

	r.logger.Infof("Updated patient %s to status %s", id, status)
	return nil
}

// GetPatients retrieves patients for the queue view, most severe first
func (r *Repository) GetPatients(ctx context.Context, filters *types.PatientFilters) ([]*types.Patient, error) {
	query := fmt.Sprintf(`SELECT %s FROM patients WHERE 1=1`, patientColumns)

	args := []interface{}{}
	argIndex := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(filters.Status))
		argIndex++
	}

	if filters.Unassigned {
		query += " AND assigned_doctor_id IS NULL AND triage_score IS NOT NULL"
	}

	query += " ORDER BY triage_score DESC NULLS LAST, created_at ASC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Errorf("Failed to get patients: %v", err)
		return nil, fmt.Errorf("failed to get patients: %w", err)
	}
	defer rows.Close()

	var patients []*types.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			r.logger.Errorf("Failed to scan patient: %v", err)
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}

	return patients, nil
}

const doctorColumns = `id, first_name, last_name, email, specialty, is_available,
	   current_patients, max_patients, last_active`

// GetAvailableDoctors returns doctors with spare capacity, fewest-loaded
// first. This is the directory snapshot the assignment engine ranks.
func (r *Repository) GetAvailableDoctors(ctx context.Context) ([]*types.Doctor, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM doctors
		WHERE is_available = true AND current_patients < max_patients
		ORDER BY current_patients ASC`, doctorColumns)

	return r.queryDoctors(ctx, query)
}

// ListDoctors returns the full directory, most recently active first
func (r *Repository) ListDoctors(ctx context.Context) ([]*types.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors ORDER BY last_active DESC`, doctorColumns)

	return r.queryDoctors(ctx, query)
}

// GetDoctorByID retrieves a doctor by ID
func (r *Repository) GetDoctorByID(ctx context.Context, id string) (*types.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors WHERE id = $1`, doctorColumns)

	d := &types.Doctor{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID,
		&d.FirstName,
		&d.LastName,
		&d.Email,
		&d.Specialty,
		&d.IsAvailable,
		&d.CurrentPatients,
		&d.MaxPatients,
		&d.LastActive,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("doctor not found: %s", id))
		}
		r.logger.Errorf("Failed to get doctor %s: %v", id, err)
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	return d, nil
}

// UpdateDoctorLoad applies a conditional load update: it succeeds only
// if the doctor's load still equals the value read from the snapshot.
// A lost race surfaces as a contention error so the caller can re-read
// and retry instead of overshooting max_patients.
func (r *Repository) UpdateDoctorLoad(ctx context.Context, doctorID string, oldLoad, newLoad int) error {
	query := `
		UPDATE doctors SET current_patients = $1
		WHERE id = $2 AND current_patients = $3 AND current_patients < max_patients`

	result, err := r.db.ExecContext(ctx, query, newLoad, doctorID, oldLoad)
	if err != nil {
		r.logger.Errorf("Failed to update load for doctor %s: %v", doctorID, err)
		return fmt.Errorf("failed to update doctor load: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewContentionError(types.ErrCodeContention,
			fmt.Sprintf("doctor %s load changed since snapshot read", doctorID))
	}

	return nil
}

// ReleaseDoctorLoad is the compensating decrement for a claimed slot.
// Unlike UpdateDoctorLoad it carries no capacity guard: releasing must
// work even when the claim took the doctor's last slot and load equals
// max_patients.
func (r *Repository) ReleaseDoctorLoad(ctx context.Context, doctorID string, oldLoad, newLoad int) error {
	query := `
		UPDATE doctors SET current_patients = $1
		WHERE id = $2 AND current_patients = $3`

	result, err := r.db.ExecContext(ctx, query, newLoad, doctorID, oldLoad)
	if err != nil {
		r.logger.Errorf("Failed to release load for doctor %s: %v", doctorID, err)
		return fmt.Errorf("failed to release doctor load: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewContentionError(types.ErrCodeContention,
			fmt.Sprintf("doctor %s load changed since claim", doctorID))
	}

	return nil
}

// SetDoctorAvailability toggles a doctor's availability
func (r *Repository) SetDoctorAvailability(ctx context.Context, doctorID string, available bool) error {
	query := `UPDATE doctors SET is_available = $1, last_active = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, available, time.Now(), doctorID)
	if err != nil {
		r.logger.Errorf("Failed to set availability for doctor %s: %v", doctorID, err)
		return fmt.Errorf("failed to set doctor availability: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("doctor not found: %s", doctorID))
	}

	return nil
}

// TouchDoctorActivity records a doctor activity heartbeat
func (r *Repository) TouchDoctorActivity(ctx context.Context, doctorID string) error {
	query := `UPDATE doctors SET last_active = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, time.Now(), doctorID)
	if err != nil {
		return fmt.Errorf("failed to record doctor activity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("doctor not found: %s", doctorID))
	}

	return nil
}

// MarkInactiveDoctorsUnavailable flips availability off for doctors
// whose last heartbeat is older than the threshold. Returns how many
// doctors were affected.
func (r *Repository) MarkInactiveDoctorsUnavailable(ctx context.Context, inactiveMinutes int) (int, error) {
	cutoff := time.Now().Add(-time.Duration(inactiveMinutes) * time.Minute)

	query := `UPDATE doctors SET is_available = false WHERE is_available = true AND last_active < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		r.logger.Errorf("Failed to sweep inactive doctors: %v", err)
		return 0, fmt.Errorf("failed to sweep inactive doctors: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

// CreateAlert persists a new emergency alert
func (r *Repository) CreateAlert(ctx context.Context, alert *types.EmergencyAlert) error {
	query := `
		INSERT INTO emergency_alerts (id, patient_id, severity, description, status, escalated)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.PatientID,
		alert.Severity,
		alert.Description,
		string(alert.Status),
		alert.Escalated,
	)

	if err != nil {
		r.logger.Errorf("Failed to create alert for patient %s: %v", alert.PatientID, err)
		return fmt.Errorf("failed to create alert: %w", err)
	}

	r.logger.Infof("Created emergency alert %s for patient %s with severity %d",
		alert.ID, alert.PatientID, alert.Severity)
	return nil
}

// GetRecentAlerts returns the most recent alerts, newest first
func (r *Repository) GetRecentAlerts(ctx context.Context, limit int) ([]*types.EmergencyAlert, error) {
	query := `
		SELECT id, patient_id, severity, description, status, acknowledged_by,
			   resolved_at, escalated, created_at
		FROM emergency_alerts
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Errorf("Failed to get recent alerts: %v", err)
		return nil, fmt.Errorf("failed to get recent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*types.EmergencyAlert
	for rows.Next() {
		a := &types.EmergencyAlert{}
		var acknowledgedBy sql.NullString
		var resolvedAt sql.NullTime

		err := rows.Scan(
			&a.ID,
			&a.PatientID,
			&a.Severity,
			&a.Description,
			&a.Status,
			&acknowledgedBy,
			&resolvedAt,
			&a.Escalated,
			&a.CreatedAt,
		)
		if err != nil {
			r.logger.Errorf("Failed to scan alert: %v", err)
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		if acknowledgedBy.Valid {
			a.AcknowledgedBy = &acknowledgedBy.String
		}
		if resolvedAt.Valid {
			a.ResolvedAt = &resolvedAt.Time
		}

		alerts = append(alerts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

// UpdateAlertStatus moves an alert through pending -> acknowledged -> resolved
func (r *Repository) UpdateAlertStatus(ctx context.Context, alertID string, status types.AlertStatus, staffID string) error {
	var result sql.Result
	var err error

	switch status {
	case types.AlertAcknowledged:
		query := `
			UPDATE emergency_alerts SET status = $1, acknowledged_by = $2
			WHERE id = $3 AND status = 'pending'`
		result, err = r.db.ExecContext(ctx, query, string(status), staffID, alertID)
	case types.AlertResolved:
		query := `
			UPDATE emergency_alerts SET status = $1, resolved_at = $2
			WHERE id = $3 AND status IN ('pending', 'acknowledged')`
		result, err = r.db.ExecContext(ctx, query, string(status), time.Now(), alertID)
	default:
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("invalid alert status transition to %s", status), nil)
	}

	if err != nil {
		r.logger.Errorf("Failed to update alert %s: %v", alertID, err)
		return fmt.Errorf("failed to update alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound,
			fmt.Sprintf("alert %s not found or not in a valid state", alertID))
	}

	r.logger.Infof("Updated alert %s to status %s", alertID, status)
	return nil
}

// EscalateAlert marks an alert as escalated; the flag is sticky
func (r *Repository) EscalateAlert(ctx context.Context, alertID string) error {
	query := `UPDATE emergency_alerts SET escalated = true WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, alertID)
	if err != nil {
		r.logger.Errorf("Failed to escalate alert %s: %v", alertID, err)
		return fmt.Errorf("failed to escalate alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, fmt.Sprintf("alert not found: %s", alertID))
	}

	return nil
}

// queryDoctors runs a doctor query and scans the result set
func (r *Repository) queryDoctors(ctx context.Context, query string, args ...interface{}) ([]*types.Doctor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Errorf("Failed to query doctors: %v", err)
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()

	var doctors []*types.Doctor
	for rows.Next() {
		d := &types.Doctor{}
		err := rows.Scan(
			&d.ID,
			&d.FirstName,
			&d.LastName,
			&d.Email,
			&d.Specialty,
			&d.IsAvailable,
			&d.CurrentPatients,
			&d.MaxPatients,
			&d.LastActive,
		)
		if err != nil {
			r.logger.Errorf("Failed to scan doctor: %v", err)
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating doctors: %w", err)
	}

	return doctors, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for patient scanning
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanPatient scans one patient row, decoding nullable columns
func scanPatient(row rowScanner) (*types.Patient, error) {
	p := &types.Patient{}
	var contactNumber, email sql.NullString
	var vitalsJSON []byte
	var triageScore sql.NullInt64
	var assignedDoctorID sql.NullString

	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.DateOfBirth,
		&contactNumber,
		&email,
		&p.Symptoms,
		&vitalsJSON,
		&triageScore,
		&assignedDoctorID,
		&p.Status,
		&p.CreatedAt,
		&p.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	p.ContactNumber = contactNumber.String
	p.Email = email.String

	if len(vitalsJSON) > 0 {
		var v types.Vitals
		if err := json.Unmarshal(vitalsJSON, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vitals: %w", err)
		}
		p.Vitals = &v
	}

	if triageScore.Valid {
		score := int(triageScore.Int64)
		p.TriageScore = &score
	}

	if assignedDoctorID.Valid {
		p.AssignedDoctorID = &assignedDoctorID.String
	}

	return p, nil
}

// nullIfEmpty converts empty strings to NULL for optional columns
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
