package safety

import (
	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/models"
)

// Stable identifiers for the hard robotics checks, in evaluation order.
const (
	FailCollisionMargin = "ROBOTICS_SAFETY_COLLISION_MARGIN"
	FailTorqueUsage     = "ROBOTICS_SAFETY_TORQUE_USAGE"
	FailSpeedUsage      = "ROBOTICS_SAFETY_SPEED_USAGE"
	FailStabilityMargin = "ROBOTICS_SAFETY_STABILITY_MARGIN"
)

// roboticsMode prefixes robotics certificate IDs.
const roboticsMode = "robotics-safety"

// EvaluateRobotics runs the four hard robotics checks in fixed order:
// collision margin above its floor, torque and speed usage below their
// ceilings, stability margin above its floor. Every check is evaluated
// even after a failure so the certificate and deltas cover the full set;
// FirstFail points at the earliest failing check.
func EvaluateRobotics(input *models.RoboticsSafetyInput) (*models.Verdict, error) {
	checks := []struct {
		id    string
		key   string
		op    string
		value float64
		limit float64
	}{
		{FailCollisionMargin, "robotics.collisionMargin", config.OpGE, input.CollisionMargin, input.CollisionMarginMin},
		{FailTorqueUsage, "robotics.torqueUsage", config.OpLE, input.TorqueUsage, input.TorqueUsageMax},
		{FailSpeedUsage, "robotics.speedUsage", config.OpLE, input.SpeedUsage, input.SpeedUsageMax},
		{FailStabilityMargin, "robotics.stabilityMargin", config.OpGE, input.StabilityMargin, input.StabilityMarginMin},
	}

	verdict := &models.Verdict{Pass: true, Deltas: make([]models.Delta, 0, len(checks))}
	certChecks := make([]certCheck, 0, len(checks))
	for _, check := range checks {
		status := models.VerdictPass
		if !compare(check.value, check.op, check.limit) {
			status = models.VerdictFail
			verdict.Pass = false
			if verdict.FirstFail == nil {
				verdict.FirstFail = &models.CheckFailure{
					ID:       check.id,
					Severity: models.SeverityHard,
					Status:   models.VerdictFail,
					Value:    check.value,
					Limit:    check.limit,
				}
			}
		}
		certChecks = append(certChecks, certCheck{
			ID:     check.id,
			Op:     check.op,
			Value:  check.value,
			Limit:  check.limit,
			Status: status,
		})
		verdict.Deltas = append(verdict.Deltas, models.Delta{
			Key:    check.key,
			To:     check.value,
			Delta:  check.value - check.limit,
			Change: models.ChangeAdded,
		})
	}

	integrityOK := true
	if input.IntegrityOK != nil {
		integrityOK = *input.IntegrityOK
	}
	certificate, err := buildCertificate(roboticsMode, certChecks, verdict.Pass, integrityOK)
	if err != nil {
		return nil, err
	}
	verdict.Certificate = certificate
	return verdict, nil
}
