package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/latticelabs/helix/pkg/config"
	"github.com/latticelabs/helix/pkg/models"
)

var idSepRe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// failID derives a stable check identifier, e.g.
// ("tool-use-budget", "tools.callCount") -> "TOOL_USE_BUDGET_TOOLS_CALLCOUNT".
func failID(packID, key string) string {
	return strings.ToUpper(idSepRe.ReplaceAllString(packID+"_"+key, "_"))
}

// EvaluatePack runs a constraint pack over telemetry. HARD failures veto
// (Pass false, FirstFail set); SOFT failures are recorded in the deltas
// and certificate only. A HARD check whose telemetry is missing fails
// closed. previous supplies delta baselines per key; without one, the
// baseline is the check threshold. Returned notes belong on the trace
// row.
func EvaluatePack(pack *config.ConstraintPack, telemetry, previous map[string]float64) (*models.Verdict, []string, error) {
	verdict := &models.Verdict{Pass: true, Deltas: make([]models.Delta, 0, len(pack.Checks))}
	certChecks := make([]certCheck, 0, len(pack.Checks))
	var notes []string

	for _, check := range pack.Checks {
		id := failID(pack.ID, check.Key)
		value, sampled := telemetry[check.Key]
		if !sampled {
			if check.Severity != config.SeverityHard {
				notes = append(notes, fmt.Sprintf("telemetry missing for %s", check.Key))
				continue
			}
			verdict.Pass = false
			if verdict.FirstFail == nil {
				verdict.FirstFail = &models.CheckFailure{
					ID:       id,
					Severity: check.Severity,
					Status:   models.VerdictFail,
					Limit:    check.Threshold,
					Note:     "telemetry missing",
				}
			}
			certChecks = append(certChecks, certCheck{
				ID:     id,
				Op:     check.Op,
				Limit:  check.Threshold,
				Status: models.VerdictFail,
			})
			continue
		}

		status := models.VerdictPass
		if !compare(value, check.Op, check.Threshold) {
			status = models.VerdictFail
			if check.Severity == config.SeverityHard {
				verdict.Pass = false
				if verdict.FirstFail == nil {
					verdict.FirstFail = &models.CheckFailure{
						ID:       id,
						Severity: check.Severity,
						Status:   models.VerdictFail,
						Value:    value,
						Limit:    check.Threshold,
						Note:     check.Note,
					}
				}
			}
		}
		certChecks = append(certChecks, certCheck{
			ID:     id,
			Op:     check.Op,
			Value:  value,
			Limit:  check.Threshold,
			Status: status,
		})

		delta := models.Delta{Key: check.Key, To: value, Change: models.ChangeAdded}
		if prev, known := previous[check.Key]; known {
			from := prev
			delta.From = &from
			delta.Delta = value - prev
			delta.Change = models.ChangeModified
		} else {
			delta.Delta = value - check.Threshold
		}
		verdict.Deltas = append(verdict.Deltas, delta)
	}

	certificate, err := buildCertificate(pack.ID, certChecks, verdict.Pass, true)
	if err != nil {
		return nil, nil, err
	}
	verdict.Certificate = certificate
	return verdict, notes, nil
}

// compare applies one constraint operator.
func compare(value float64, op string, limit float64) bool {
	switch op {
	case config.OpLE:
		return value <= limit
	case config.OpLT:
		return value < limit
	case config.OpGE:
		return value >= limit
	case config.OpGT:
		return value > limit
	case config.OpEQ:
		return value == limit
	case config.OpNE:
		return value != limit
	default:
		return false
	}
}
