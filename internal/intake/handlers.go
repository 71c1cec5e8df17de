package intake

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/medisync/frontdesk/pkg/monitoring"
	"github.com/medisync/frontdesk/pkg/types"
)

// setupRoutes configures HTTP routes for the front-desk service
func (s *Service) setupRoutes(router *mux.Router) {
	router.Use(s.loggingMiddleware)
	router.Use(s.corsMiddleware)
	if s.config.Monitoring.Enabled {
		router.Use(monitoring.Middleware)

		metricsPath := s.config.Monitoring.MetricsPath
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		router.Handle(metricsPath, monitoring.Handler()).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	if s.config.Auth.JWTSecret != "" {
		api.Use(s.authMiddleware)
	}

	// Patient routes
	api.HandleFunc("/patients", s.checkInHandler).Methods("POST")
	api.HandleFunc("/patients", s.getQueueHandler).Methods("GET")
	api.HandleFunc("/patients/{id}", s.getPatientHandler).Methods("GET")
	api.HandleFunc("/patients/{id}/status", s.updatePatientStatusHandler).Methods("PUT")

	// Doctor routes
	api.HandleFunc("/doctors", s.listDoctorsHandler).Methods("GET")
	api.HandleFunc("/doctors/{id}", s.getDoctorHandler).Methods("GET")
	api.HandleFunc("/doctors/{id}/availability", s.setAvailabilityHandler).Methods("PUT")
	api.HandleFunc("/doctors/{id}/heartbeat", s.heartbeatHandler).Methods("POST")

	// Alert routes
	api.HandleFunc("/alerts", s.getAlertsHandler).Methods("GET")
	api.HandleFunc("/alerts/{id}/acknowledge", s.acknowledgeAlertHandler).Methods("POST")
	api.HandleFunc("/alerts/{id}/resolve", s.resolveAlertHandler).Methods("POST")
	api.HandleFunc("/alerts/{id}/escalate", s.escalateAlertHandler).Methods("POST")

	// Dashboard change feed
	api.HandleFunc("/events", s.eventsHandler).Methods("GET")

	// Health check
	api.HandleFunc("/health", s.healthCheckHandler).Methods("GET")

	s.logger.Info("Front-desk service routes configured")
}

// checkInHandler handles patient check-in
func (s *Service) checkInHandler(w http.ResponseWriter, r *http.Request) {
	var draft types.PatientDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := s.CheckIn(r.Context(), &draft)
	if err != nil {
		status := http.StatusInternalServerError
		var fdErr *types.FrontdeskError
		if errors.As(err, &fdErr) && fdErr.Type == types.ErrorTypeValidation {
			status = http.StatusBadRequest
		}
		s.writeErrorResponse(w, status, "Failed to check in patient", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, result)
}

// getQueueHandler returns the triage-sorted patient queue
func (s *Service) getQueueHandler(w http.ResponseWriter, r *http.Request) {
	filters := &types.PatientFilters{
		Status: types.PatientStatus(r.URL.Query().Get("status")),
		Limit:  10,
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filters.Limit = n
		}
	}

	patients, err := s.GetQueue(r.Context(), filters)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to get patient queue", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, patients)
}

// getPatientHandler returns a single patient
func (s *Service) getPatientHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	patient, err := s.GetPatient(r.Context(), vars["id"])
	if err != nil {
		s.writeErrorResponse(w, http.StatusNotFound, "Patient not found", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, patient)
}

// updatePatientStatusHandler moves a patient through the lifecycle
func (s *Service) updatePatientStatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var body struct {
		Status types.PatientStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.UpdatePatientStatus(r.Context(), vars["id"], body.Status); err != nil {
		s.writeErrorResponse(w, statusForError(err), "Failed to update patient status", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Patient status updated"})
}

// listDoctorsHandler returns the doctor directory
func (s *Service) listDoctorsHandler(w http.ResponseWriter, r *http.Request) {
	doctors, err := s.ListDoctors(r.Context())
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to list doctors", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, doctors)
}

// getDoctorHandler returns a single doctor
func (s *Service) getDoctorHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	doctor, err := s.GetDoctor(r.Context(), vars["id"])
	if err != nil {
		s.writeErrorResponse(w, statusForError(err), "Doctor not found", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, doctor)
}

// setAvailabilityHandler toggles a doctor's availability
func (s *Service) setAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var body struct {
		IsAvailable bool `json:"is_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.SetDoctorAvailability(r.Context(), vars["id"], body.IsAvailable); err != nil {
		s.writeErrorResponse(w, statusForError(err), "Failed to set doctor availability", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Doctor availability updated"})
}

// heartbeatHandler records a doctor activity heartbeat
func (s *Service) heartbeatHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.RecordDoctorActivity(r.Context(), vars["id"]); err != nil {
		s.writeErrorResponse(w, statusForError(err), "Failed to record doctor activity", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Activity recorded"})
}

// getAlertsHandler returns recent emergency alerts
func (s *Service) getAlertsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	alerts, err := s.GetRecentAlerts(r.Context(), limit)
	if err != nil {
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to get alerts", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, alerts)
}

// acknowledgeAlertHandler marks an alert as acknowledged
func (s *Service) acknowledgeAlertHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var body struct {
		StaffID string `json:"staff_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := s.AcknowledgeAlert(r.Context(), vars["id"], body.StaffID); err != nil {
		s.writeErrorResponse(w, statusForError(err), "Failed to acknowledge alert", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Alert acknowledged"})
}

// resolveAlertHandler marks an alert as resolved
func (s *Service) resolveAlertHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.ResolveAlert(r.Context(), vars["id"]); err != nil {
		s.writeErrorResponse(w, statusForError(err), "Failed to resolve alert", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Alert resolved"})
}

// escalateAlertHandler flags an alert as escalated
func (s *Service) escalateAlertHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.EscalateAlert(r.Context(), vars["id"]); err != nil {
		s.writeErrorResponse(w, statusForError(err), "Failed to escalate alert", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Alert escalated"})
}

// eventsHandler streams dashboard change events over SSE
func (s *Service) eventsHandler(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeHTTP(w, r)
}

// healthCheckHandler reports service health
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Health(); err != nil {
		s.writeErrorResponse(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeJSONResponse writes a JSON response with the given status code
func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a JSON error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	s.logger.WithError(err).Warn(message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   message,
		"details": err.Error(),
	})
}

// statusForError maps structured errors to HTTP status codes
func statusForError(err error) int {
	var fdErr *types.FrontdeskError
	if errors.As(err, &fdErr) {
		switch fdErr.Type {
		case types.ErrorTypeValidation:
			return http.StatusBadRequest
		case types.ErrorTypeNotFound:
			return http.StatusNotFound
		case types.ErrorTypeConflict, types.ErrorTypeContention:
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}
