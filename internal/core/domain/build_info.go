package domain

import "time"

// BuildRecord is the persisted outcome of one build invocation.
type BuildRecord struct {
	Descriptor        string    `json:"descriptor,omitzero"`
	Version           string    `json:"version,omitzero"`
	Platform          Platform  `json:"platform,omitzero"`
	ParamsFingerprint string    `json:"params_fingerprint,omitzero"`
	State             State     `json:"state,omitzero"`
	FailedPhase       Phase     `json:"failed_phase,omitzero"`
	FinishedAt        time.Time `json:"finished_at,omitzero"`
}

// Key identifies the record slot: one per descriptor and platform.
func (r BuildRecord) Key() string {
	return r.Descriptor + "|" + r.Platform.String()
}
