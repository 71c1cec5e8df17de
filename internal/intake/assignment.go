package intake

import (
	"context"
	"errors"
	"sort"

	"github.com/medisync/frontdesk/pkg/monitoring"
	"github.com/medisync/frontdesk/pkg/types"
)

// SelectDoctor picks the assignment candidate from a directory
// snapshot: available doctors with spare capacity, fewest-loaded first.
// Returns nil when no doctor qualifies.
//
// The triage score is accepted for future prioritization but the
// current policy ignores it when ranking; see DESIGN.md.
func SelectDoctor(doctors []*types.Doctor, triageScore int) *types.Doctor {
	candidates := make([]*types.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if d.HasCapacity() {
			candidates = append(candidates, d)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CurrentPatients < candidates[j].CurrentPatients
	})

	return candidates[0]
}

// assignDoctor runs the assignment engine against the live directory:
// snapshot read, greedy pick, then a conditional load update so two
// concurrent intakes cannot both claim a doctor's last slot. A lost
// update re-reads the directory and retries up to maxRetries times.
//
// Returns (nil, nil) when no doctor is available; that is a reportable
// condition, not an error.
func (s *Service) assignDoctor(ctx context.Context, patientID string, triageScore int) (*types.Doctor, error) {
	var contention *types.FrontdeskError

	for attempt := 0; attempt < s.maxAssignRetries; attempt++ {
		doctors, err := s.repository.GetAvailableDoctors(ctx)
		if err != nil {
			return nil, err
		}

		doctor := SelectDoctor(doctors, triageScore)
		if doctor == nil {
			monitoring.RecordAssignment("none_available")
			return nil, nil
		}

		err = s.repository.UpdateDoctorLoad(ctx, doctor.ID, doctor.CurrentPatients, doctor.CurrentPatients+1)
		if err != nil {
			if errors.As(err, &contention) && contention.Type == types.ErrorTypeContention {
				s.logger.Warnf("Assignment contention for doctor %s (attempt %d), retrying",
					doctor.ID, attempt+1)
				continue
			}
			return nil, err
		}

		if err := s.repository.AssignPatient(ctx, patientID, doctor.ID); err != nil {
			// The load slot is already claimed; release it so the
			// counter stays consistent with patient records.
			if releaseErr := s.repository.ReleaseDoctorLoad(ctx, doctor.ID,
				doctor.CurrentPatients+1, doctor.CurrentPatients); releaseErr != nil {
				s.logger.Errorf("Failed to release load for doctor %s: %v", doctor.ID, releaseErr)
			}
			return nil, err
		}

		doctor.CurrentPatients++
		monitoring.RecordAssignment("assigned")
		s.logger.Infof("Assigned patient %s to doctor %s (load %d/%d)",
			patientID, doctor.ID, doctor.CurrentPatients, doctor.MaxPatients)
		return doctor, nil
	}

	monitoring.RecordAssignment("contention")
	s.logger.Warnf("Giving up on assignment for patient %s after %d contended attempts",
		patientID, s.maxAssignRetries)
	return nil, nil
}
