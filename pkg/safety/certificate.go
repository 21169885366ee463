package safety

import (
	"github.com/latticelabs/helix/pkg/canonjson"
	"github.com/latticelabs/helix/pkg/models"
)

// certCheck is one evaluated check as it enters the certificate hash.
// Canonical JSON sorts the keys, so field order here is cosmetic but the
// json names are load-bearing: changing one changes every hash.
type certCheck struct {
	ID     string  `json:"id"`
	Op     string  `json:"op"`
	Value  float64 `json:"value"`
	Limit  float64 `json:"limit"`
	Status string  `json:"status"`
}

type certPayload struct {
	Mode   string      `json:"mode"`
	Checks []certCheck `json:"checks"`
}

// buildCertificate hashes the canonical JSON of {mode, checks} and derives
// the certificate ID from the mode plus the first 12 hash hex chars.
// Status is RED exactly when the evaluation vetoed.
func buildCertificate(mode string, checks []certCheck, pass, integrityOK bool) (*models.Certificate, error) {
	hash, err := canonjson.Hash(certPayload{Mode: mode, Checks: checks})
	if err != nil {
		return nil, err
	}
	status := models.CertificateGreen
	if !pass {
		status = models.CertificateRed
	}
	return &models.Certificate{
		Status:          status,
		CertificateHash: hash,
		CertificateID:   mode + ":" + hash[:12],
		IntegrityOK:     integrityOK,
	}, nil
}
