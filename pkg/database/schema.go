package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the database schema for the front-desk service
func (db *DB) CreateSchema(ctx context.Context) error {
	db.logger.Info("Creating database schema...")

	// Create extension for UUID generation
	if err := db.createExtensions(ctx); err != nil {
		return fmt.Errorf("failed to create extensions: %w", err)
	}

	// Create tables
	// Doctors first: patients carry a foreign key into the directory
	tables := []string{
		createDoctorsTable,
		createPatientsTable,
		createEmergencyAlertsTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Create indexes
	indexes := []string{
		createPatientsIndexes,
		createDoctorsIndexes,
		createEmergencyAlertsIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	// Create change-notification triggers for the dashboard feed
	if err := db.createChangeTriggers(ctx); err != nil {
		return fmt.Errorf("failed to create change triggers: %w", err)
	}

	db.logger.Info("Database schema created successfully")
	return nil
}

// createExtensions creates required PostgreSQL extensions
func (db *DB) createExtensions(ctx context.Context) error {
	extensions := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	return nil
}

// createChangeTriggers installs a NOTIFY trigger on every watched table.
// Each row change publishes {table, op, id} on the frontdesk_changes
// channel, which pkg/database.Listener consumes.
func (db *DB) createChangeTriggers(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, createNotifyFunction); err != nil {
		return fmt.Errorf("failed to create notify function: %w", err)
	}

	for _, table := range []string{"patients", "doctors", "emergency_alerts"} {
		stmt := fmt.Sprintf(`
			DROP TRIGGER IF EXISTS %[1]s_notify ON %[1]s;
			CREATE TRIGGER %[1]s_notify
			AFTER INSERT OR UPDATE OR DELETE ON %[1]s
			FOR EACH ROW EXECUTE FUNCTION frontdesk_notify_change();`, table)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create trigger for %s: %w", table, err)
		}
	}

	return nil
}

// SQL DDL statements for table creation
const (
	createPatientsTable = `
		CREATE TABLE IF NOT EXISTS patients (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			date_of_birth DATE NOT NULL,
			contact_number VARCHAR(50),
			email VARCHAR(255),
			symptoms TEXT NOT NULL,
			vitals JSONB,
			triage_score INTEGER CHECK (triage_score BETWEEN 1 AND 10),
			assigned_doctor_id UUID REFERENCES doctors(id),
			status VARCHAR(20) NOT NULL DEFAULT 'waiting'
				CHECK (status IN ('waiting', 'in_treatment', 'discharged')),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			last_updated TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createDoctorsTable = `
		CREATE TABLE IF NOT EXISTS doctors (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			first_name VARCHAR(100) NOT NULL,
			last_name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL,
			specialty VARCHAR(100) NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT true,
			current_patients INTEGER NOT NULL DEFAULT 0 CHECK (current_patients >= 0),
			max_patients INTEGER NOT NULL CHECK (max_patients > 0),
			last_active TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createEmergencyAlertsTable = `
		CREATE TABLE IF NOT EXISTS emergency_alerts (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			patient_id UUID NOT NULL REFERENCES patients(id),
			severity INTEGER NOT NULL CHECK (severity BETWEEN 1 AND 10),
			description TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'acknowledged', 'resolved')),
			acknowledged_by VARCHAR(255),
			resolved_at TIMESTAMP WITH TIME ZONE,
			escalated BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`
)

// SQL statements for index creation
const (
	createPatientsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_patients_status ON patients(status);
		CREATE INDEX IF NOT EXISTS idx_patients_triage_score ON patients(triage_score DESC);
		CREATE INDEX IF NOT EXISTS idx_patients_assigned_doctor ON patients(assigned_doctor_id);`

	createDoctorsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_doctors_available ON doctors(is_available, current_patients);
		CREATE INDEX IF NOT EXISTS idx_doctors_last_active ON doctors(last_active DESC);`

	createEmergencyAlertsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON emergency_alerts(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_alerts_status ON emergency_alerts(status);`
)

const createNotifyFunction = `
	CREATE OR REPLACE FUNCTION frontdesk_notify_change() RETURNS trigger AS $$
	DECLARE
		row_id UUID;
	BEGIN
		IF TG_OP = 'DELETE' THEN
			row_id := OLD.id;
		ELSE
			row_id := NEW.id;
		END IF;
		PERFORM pg_notify('frontdesk_changes',
			json_build_object('table', TG_TABLE_NAME, 'op', TG_OP, 'id', row_id)::text);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql;`
