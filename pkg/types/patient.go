package types

import "time"

// PatientStatus represents patient status values
type PatientStatus string

const (
	PatientWaiting     PatientStatus = "waiting"
	PatientInTreatment PatientStatus = "in_treatment"
	PatientDischarged  PatientStatus = "discharged"
)

// Vitals holds the optional structured vitals captured at check-in
type Vitals struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	BloodPressure    *string  `json:"blood_pressure,omitempty"`
	HeartRate        *int     `json:"heart_rate,omitempty"`
	OxygenSaturation *int     `json:"oxygen_saturation,omitempty"`
}

// IsEmpty reports whether no vital was captured
func (v *Vitals) IsEmpty() bool {
	if v == nil {
		return true
	}
	return v.Temperature == nil && v.BloodPressure == nil && v.HeartRate == nil && v.OxygenSaturation == nil
}

// Patient represents a checked-in patient
type Patient struct {
	ID               string        `json:"id" db:"id"`
	FirstName        string        `json:"first_name" db:"first_name"`
	LastName         string        `json:"last_name" db:"last_name"`
	DateOfBirth      string        `json:"date_of_birth" db:"date_of_birth"`
	ContactNumber    string        `json:"contact_number,omitempty" db:"contact_number"`
	Email            string        `json:"email,omitempty" db:"email"`
	Symptoms         string        `json:"symptoms" db:"symptoms"`
	Vitals           *Vitals       `json:"vitals,omitempty" db:"vitals"`
	TriageScore      *int          `json:"triage_score,omitempty" db:"triage_score"`
	AssignedDoctorID *string       `json:"assigned_doctor_id,omitempty" db:"assigned_doctor_id"`
	Status           PatientStatus `json:"status" db:"status"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	LastUpdated      time.Time     `json:"last_updated" db:"last_updated"`
}

// PatientDraft is the check-in payload before a record exists
type PatientDraft struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	DateOfBirth   string  `json:"date_of_birth"`
	ContactNumber string  `json:"contact_number,omitempty"`
	Email         string  `json:"email,omitempty"`
	Symptoms      string  `json:"symptoms"`
	Vitals        *Vitals `json:"vitals,omitempty"`
}

// PatientFilters represents filters for queue queries
type PatientFilters struct {
	Status     PatientStatus `json:"status,omitempty"`
	Unassigned bool          `json:"unassigned,omitempty"`
	Limit      int           `json:"limit,omitempty"`
}

// IntakeResult is what a completed check-in reports back to the caller.
// Warnings carry the absorbed side conditions (degraded scoring, failed
// alert persistence, no doctor available, failed notification).
type IntakeResult struct {
	Patient        *Patient `json:"patient"`
	AssignedDoctor *Doctor  `json:"assigned_doctor,omitempty"`
	AlertID        string   `json:"alert_id,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}
