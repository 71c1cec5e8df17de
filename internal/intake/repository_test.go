package intake

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisync/frontdesk/pkg/database"
	"github.com/medisync/frontdesk/pkg/logger"
	"github.com/medisync/frontdesk/pkg/types"
)

func setupTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := &Repository{
		db:     &database.DB{DB: db},
		logger: logger.New("debug"),
	}

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

var patientRowColumns = []string{
	"id", "first_name", "last_name", "date_of_birth", "contact_number", "email",
	"symptoms", "vitals", "triage_score", "assigned_doctor_id", "status", "created_at", "last_updated",
}

var doctorRowColumns = []string{
	"id", "first_name", "last_name", "email", "specialty", "is_available",
	"current_patients", "max_patients", "last_active",
}

func TestRepository_CreatePatient(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	p := &types.Patient{
		ID:          uuid.New().String(),
		FirstName:   "Ana",
		LastName:    "Ruiz",
		DateOfBirth: "1990-06-02",
		Symptoms:    "fever and cough",
		Status:      types.PatientWaiting,
	}

	mock.ExpectExec("INSERT INTO patients").
		WithArgs(p.ID, p.FirstName, p.LastName, p.DateOfBirth, nil, nil, p.Symptoms, nil, "waiting").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreatePatient(context.Background(), p)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreatePatient_MarshalsVitals(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	temp := 39.1
	p := &types.Patient{
		ID:          uuid.New().String(),
		FirstName:   "Ben",
		LastName:    "Okafor",
		DateOfBirth: "1978-11-20",
		Symptoms:    "shortness of breath",
		Vitals:      &types.Vitals{Temperature: &temp},
		Status:      types.PatientWaiting,
	}

	mock.ExpectExec("INSERT INTO patients").
		WithArgs(p.ID, p.FirstName, p.LastName, p.DateOfBirth, nil, nil,
			p.Symptoms, []byte(`{"temperature":39.1}`), "waiting").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreatePatient(context.Background(), p)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetPatientByID(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(patientRowColumns).AddRow(
		"pat-1", "Ana", "Ruiz", "1990-06-02", nil, nil,
		"fever and cough", []byte(`{"heart_rate":102}`), 6, "doc-a", "waiting", now, now,
	)

	mock.ExpectQuery(`SELECT (.+) FROM patients WHERE id = \$1`).
		WithArgs("pat-1").
		WillReturnRows(rows)

	p, err := repo.GetPatientByID(context.Background(), "pat-1")

	require.NoError(t, err)
	assert.Equal(t, "pat-1", p.ID)
	assert.Equal(t, 6, *p.TriageScore)
	assert.Equal(t, "doc-a", *p.AssignedDoctorID)
	require.NotNil(t, p.Vitals)
	assert.Equal(t, 102, *p.Vitals.HeartRate)
}

func TestRepository_GetPatientByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT (.+) FROM patients WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(patientRowColumns))

	_, err := repo.GetPatientByID(context.Background(), "missing")

	require.Error(t, err)
	var fdErr *types.FrontdeskError
	require.ErrorAs(t, err, &fdErr)
	assert.Equal(t, types.ErrorTypeNotFound, fdErr.Type)
}

func TestRepository_UpdatePatientTriage_WriteOnce(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE patients SET triage_score = \$1, last_updated = \$2\s+WHERE id = \$3 AND triage_score IS NULL`).
		WithArgs(7, sqlmock.AnyArg(), "pat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePatientTriage(context.Background(), "pat-1", 7)
	assert.NoError(t, err)

	// A second write hits zero rows and is rejected as a conflict
	mock.ExpectExec(`UPDATE patients SET triage_score = \$1, last_updated = \$2\s+WHERE id = \$3 AND triage_score IS NULL`).
		WithArgs(9, sqlmock.AnyArg(), "pat-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdatePatientTriage(context.Background(), "pat-1", 9)
	require.Error(t, err)

	var fdErr *types.FrontdeskError
	require.ErrorAs(t, err, &fdErr)
	assert.Equal(t, types.ErrorTypeConflict, fdErr.Type)
}

func TestRepository_GetAvailableDoctors(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(doctorRowColumns).
		AddRow("doc-b", "Lena", "Marsh", "b@medisync.com", "cardiology", true, 1, 5, now).
		AddRow("doc-a", "Omar", "Haddad", "a@medisync.com", "general", true, 3, 5, now)

	mock.ExpectQuery(`SELECT (.+) FROM doctors\s+WHERE is_available = true AND current_patients < max_patients\s+ORDER BY current_patients ASC`).
		WillReturnRows(rows)

	doctors, err := repo.GetAvailableDoctors(context.Background())

	require.NoError(t, err)
	require.Len(t, doctors, 2)
	assert.Equal(t, "doc-b", doctors[0].ID)
	assert.Equal(t, 1, doctors[0].CurrentPatients)
}

func TestRepository_UpdateDoctorLoad_Contention(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE doctors SET current_patients = \$1\s+WHERE id = \$2 AND current_patients = \$3 AND current_patients < max_patients`).
		WithArgs(3, "doc-a", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDoctorLoad(context.Background(), "doc-a", 2, 3)

	require.Error(t, err)
	var fdErr *types.FrontdeskError
	require.ErrorAs(t, err, &fdErr)
	assert.Equal(t, types.ErrorTypeContention, fdErr.Type)
	assert.Equal(t, types.ErrCodeContention, fdErr.Code)
}

func TestRepository_UpdateDoctorLoad_Success(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE doctors SET current_patients = \$1`).
		WithArgs(3, "doc-a", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateDoctorLoad(context.Background(), "doc-a", 2, 3)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ReleaseDoctorLoad_AtCapacity(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	// No max_patients condition: a doctor sitting at capacity can
	// still hand back the slot a failed assignment claimed
	mock.ExpectExec(`UPDATE doctors SET current_patients = \$1\s+WHERE id = \$2 AND current_patients = \$3$`).
		WithArgs(0, "doc-a", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ReleaseDoctorLoad(context.Background(), "doc-a", 1, 0)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ReleaseDoctorLoad_Contention(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE doctors SET current_patients = \$1\s+WHERE id = \$2 AND current_patients = \$3$`).
		WithArgs(0, "doc-a", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReleaseDoctorLoad(context.Background(), "doc-a", 1, 0)

	require.Error(t, err)
	var fdErr *types.FrontdeskError
	require.ErrorAs(t, err, &fdErr)
	assert.Equal(t, types.ErrorTypeContention, fdErr.Type)
}

func TestRepository_GetPatients_UnassignedFilter(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(patientRowColumns).AddRow(
		"pat-1", "Ana", "Ruiz", "1990-06-02", nil, nil,
		"fever", nil, 8, nil, "waiting", now, now,
	)

	mock.ExpectQuery(`SELECT (.+) FROM patients WHERE 1=1 AND status = \$1 AND assigned_doctor_id IS NULL AND triage_score IS NOT NULL ORDER BY triage_score DESC NULLS LAST, created_at ASC LIMIT \$2`).
		WithArgs("waiting", 10).
		WillReturnRows(rows)

	patients, err := repo.GetPatients(context.Background(), &types.PatientFilters{
		Status:     types.PatientWaiting,
		Unassigned: true,
		Limit:      10,
	})

	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Nil(t, patients[0].AssignedDoctorID)
	assert.Equal(t, 8, *patients[0].TriageScore)
}

func TestRepository_CreateAlert(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	alert := BuildAlert("pat-1", 9, "crushing chest pain")

	mock.ExpectExec("INSERT INTO emergency_alerts").
		WithArgs(alert.ID, "pat-1", 9, "High risk patient: crushing chest pain", "pending", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateAlert(context.Background(), alert)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateAlertStatus_AcknowledgeOnlyPending(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE emergency_alerts SET status = \$1, acknowledged_by = \$2\s+WHERE id = \$3 AND status = 'pending'`).
		WithArgs("acknowledged", "staff-7", "alert-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateAlertStatus(context.Background(), "alert-1", types.AlertAcknowledged, "staff-7")

	require.Error(t, err)
	var fdErr *types.FrontdeskError
	require.ErrorAs(t, err, &fdErr)
	assert.Equal(t, types.ErrorTypeNotFound, fdErr.Type)
}

func TestRepository_MarkInactiveDoctorsUnavailable(t *testing.T) {
	repo, mock, cleanup := setupTestRepository(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE doctors SET is_available = false WHERE is_available = true AND last_active < \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.MarkInactiveDoctorsUnavailable(context.Background(), 30)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
