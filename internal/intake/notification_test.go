package intake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/medisync/frontdesk/pkg/logger"
	"github.com/medisync/frontdesk/pkg/types"
)

func TestNotifyAssignment_SubjectCarriesScore(t *testing.T) {
	mockSender := &MockEmailSender{}
	manager := NewAssignmentNotificationManager(mockSender, logger.New("debug"))

	score := 8
	patient := &types.Patient{ID: "pat-1", FirstName: "Ana", LastName: "Ruiz", Symptoms: "fever", TriageScore: &score}
	doctor := &types.Doctor{ID: "doc-a", Email: "a@medisync.com"}

	mockSender.On("Send", mock.Anything, "a@medisync.com",
		"New Patient Assignment - Triage Score: 8", mock.AnythingOfType("string")).Return(nil)

	ok := manager.NotifyAssignment(context.Background(), doctor, patient)

	assert.True(t, ok)
	mockSender.AssertExpectations(t)
}

func TestNotifyAssignment_BodyContainsPatientDetails(t *testing.T) {
	mockSender := &MockEmailSender{}
	manager := NewAssignmentNotificationManager(mockSender, logger.New("debug"))

	score := 6
	patient := &types.Patient{ID: "pat-1", FirstName: "Ben", LastName: "Okafor", Symptoms: "sprained ankle", TriageScore: &score}
	doctor := &types.Doctor{ID: "doc-a", Email: "a@medisync.com"}

	var body string
	mockSender.On("Send", mock.Anything, "a@medisync.com", mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { body = args.String(3) }).Return(nil)

	manager.NotifyAssignment(context.Background(), doctor, patient)

	assert.Contains(t, body, "Ben Okafor")
	assert.Contains(t, body, "sprained ankle")
	assert.Contains(t, body, "Triage Score: 6")
}

func TestNotifyAssignment_AbsorbsSendFailure(t *testing.T) {
	mockSender := &MockEmailSender{}
	manager := NewAssignmentNotificationManager(mockSender, logger.New("debug"))

	patient := &types.Patient{ID: "pat-1", FirstName: "Ana", LastName: "Ruiz", Symptoms: "fever"}
	doctor := &types.Doctor{ID: "doc-a", Email: "a@medisync.com"}

	mockSender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(types.NewExternalError(types.ErrCodeExternalError, "provider unavailable", nil))

	ok := manager.NotifyAssignment(context.Background(), doctor, patient)

	assert.False(t, ok)
}

func TestNotifyAssignment_NilScoreDefaultsToZero(t *testing.T) {
	mockSender := &MockEmailSender{}
	manager := NewAssignmentNotificationManager(mockSender, logger.New("debug"))

	patient := &types.Patient{ID: "pat-1", FirstName: "Ana", LastName: "Ruiz", Symptoms: "fever"}
	doctor := &types.Doctor{ID: "doc-a", Email: "a@medisync.com"}

	mockSender.On("Send", mock.Anything, "a@medisync.com",
		"New Patient Assignment - Triage Score: 0", mock.AnythingOfType("string")).Return(nil)

	ok := manager.NotifyAssignment(context.Background(), doctor, patient)

	assert.True(t, ok)
	mockSender.AssertExpectations(t)
}
