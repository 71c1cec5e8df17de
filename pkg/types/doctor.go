package types

import "time"

// Doctor represents a doctor in the on-duty directory
type Doctor struct {
	ID              string    `json:"id" db:"id"`
	FirstName       string    `json:"first_name" db:"first_name"`
	LastName        string    `json:"last_name" db:"last_name"`
	Email           string    `json:"email" db:"email"`
	Specialty       string    `json:"specialty" db:"specialty"`
	IsAvailable     bool      `json:"is_available" db:"is_available"`
	CurrentPatients int       `json:"current_patients" db:"current_patients"`
	MaxPatients     int       `json:"max_patients" db:"max_patients"`
	LastActive      time.Time `json:"last_active" db:"last_active"`
}

// HasCapacity reports whether the doctor can take another patient
func (d *Doctor) HasCapacity() bool {
	return d.IsAvailable && d.CurrentPatients < d.MaxPatients
}

// FullName returns the doctor's display name
func (d *Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}
