package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medisync/frontdesk/pkg/types"
)

func TestShouldAlert_Boundary(t *testing.T) {
	assert.False(t, ShouldAlert(7))
	assert.True(t, ShouldAlert(8))
	assert.True(t, ShouldAlert(10))
	assert.False(t, ShouldAlert(1))
}

func TestBuildAlert_Fields(t *testing.T) {
	alert := BuildAlert("pat-1", 9, "crushing chest pain")

	assert.NotEmpty(t, alert.ID)
	assert.Equal(t, "pat-1", alert.PatientID)
	assert.Equal(t, 9, alert.Severity)
	assert.Equal(t, "High risk patient: crushing chest pain", alert.Description)
	assert.Equal(t, types.AlertPending, alert.Status)
	assert.False(t, alert.Escalated)
}
