package resumes

// Status is the result of one delete sub-operation.
type Status string

const (
	StatusDeleted  Status = "deleted"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// ArtifactKind names which artifact of a resume an outcome refers to.
type ArtifactKind string

const (
	ArtifactImage  ArtifactKind = "image"
	ArtifactResume ArtifactKind = "resume"
)

// RecordOutcome reports the authoritative record delete.
type RecordOutcome struct {
	Key    string `json:"key"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	err    error
}

// Err returns the underlying failure, if any.
func (o RecordOutcome) Err() error { return o.err }

// ArtifactOutcome reports one best-effort artifact delete.
type ArtifactOutcome struct {
	Kind   ArtifactKind `json:"kind"`
	Path   string       `json:"path"`
	Status Status       `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// DeleteOutcome is the structured result of deleting one resume.
type DeleteOutcome struct {
	ResumeID  string            `json:"resumeId"`
	Record    RecordOutcome     `json:"record"`
	Artifacts []ArtifactOutcome `json:"artifacts"`
}

// Gone reports whether the record is no longer present.
func (o DeleteOutcome) Gone() bool {
	return o.Record.Status == StatusDeleted || o.Record.Status == StatusNotFound
}

// Orphans returns the artifacts that could not be removed.
func (o DeleteOutcome) Orphans() []ArtifactOutcome {
	var out []ArtifactOutcome
	for _, a := range o.Artifacts {
		if a.Status == StatusFailed {
			out = append(out, a)
		}
	}
	return out
}

// BatchOutcome aggregates a bulk delete.
type BatchOutcome struct {
	Items   []DeleteOutcome `json:"items"`
	Deleted int             `json:"deleted"`
	Failed  int             `json:"failed"`
	Skipped int             `json:"skipped"`
	Aborted bool            `json:"aborted"`
}

// Partial reports whether any record survived the batch.
func (b BatchOutcome) Partial() bool {
	return b.Failed > 0 || b.Skipped > 0
}
