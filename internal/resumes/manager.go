package resumes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AhmeWagih/resume-analyzer/internal/shared/metrics"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/kv"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/telemetry"
)

// DeletingAll is the DeletingID value while a bulk delete runs.
const DeletingAll = "all"

// DefaultBulkAbortAfter is the number of consecutive unavailable record
// failures after which a bulk delete stops early.
const DefaultBulkAbortAfter = 5

// State is the view-facing snapshot of a Manager.
type State struct {
	Resumes          []Resume
	IsLoadingList    bool
	DeletingID       string
	BulkConfirmArmed bool
	LastError        string
}

// MarshalJSON renders an idle DeletingID and an empty LastError as null.
func (s State) MarshalJSON() ([]byte, error) {
	type wire struct {
		Resumes          []Resume `json:"resumes"`
		IsLoadingList    bool     `json:"isLoadingList"`
		DeletingID       *string  `json:"deletingId"`
		BulkConfirmArmed bool     `json:"bulkConfirmArmed"`
		LastError        *string  `json:"lastError"`
	}
	w := wire{
		Resumes:          s.Resumes,
		IsLoadingList:    s.IsLoadingList,
		BulkConfirmArmed: s.BulkConfirmArmed,
	}
	if w.Resumes == nil {
		w.Resumes = []Resume{}
	}
	if s.DeletingID != "" {
		w.DeletingID = &s.DeletingID
	}
	if s.LastError != "" {
		w.LastError = &s.LastError
	}
	return json.Marshal(w)
}

// BulkResult is returned by RequestDeleteAll. Outcome is nil when the call
// only armed the confirmation.
type BulkResult struct {
	Armed   bool          `json:"armed"`
	Outcome *BatchOutcome `json:"outcome,omitempty"`
}

// ManagerConfig wires a Manager to its stores.
type ManagerConfig struct {
	UserID    string
	Records   kv.RecordStore
	Artifacts object.ObjectStore
	Reporter  OrphanReporter
	// BulkAbortAfter <= 0 disables the early stop.
	BulkAbortAfter int
}

// Manager owns one user's resume collection and keeps the record and its
// artifacts consistent across list, delete and bulk delete.
type Manager struct {
	userID         string
	records        kv.RecordStore
	artifacts      object.ObjectStore
	reporter       OrphanReporter
	bulkAbortAfter int

	// inflight is a single-slot token; holding it means an operation is running.
	inflight chan struct{}

	mu    sync.Mutex
	state State
}

// NewManager constructs a Manager. A nil Reporter logs orphans.
func NewManager(cfg ManagerConfig) *Manager {
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Manager{
		userID:         cfg.UserID,
		records:        cfg.Records,
		artifacts:      cfg.Artifacts,
		reporter:       reporter,
		bulkAbortAfter: cfg.BulkAbortAfter,
		inflight:       make(chan struct{}, 1),
		state:          State{Resumes: []Resume{}},
	}
}

// UserID returns the owner of this Manager.
func (m *Manager) UserID() string { return m.userID }

func (m *Manager) acquire() error {
	select {
	case m.inflight <- struct{}{}:
		return nil
	default:
		return ErrBusy
	}
}

func (m *Manager) release() { <-m.inflight }

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.Resumes = append([]Resume(nil), m.state.Resumes...)
	return s
}

// Disarm cancels a pending bulk-delete confirmation.
func (m *Manager) Disarm() {
	m.mu.Lock()
	m.state.BulkConfirmArmed = false
	m.mu.Unlock()
}

// DismissError clears the user-visible notice.
func (m *Manager) DismissError() {
	m.mu.Lock()
	m.state.LastError = ""
	m.mu.Unlock()
}

// LoadAll replaces the collection with the store's current records. On
// failure the previous collection is kept and LastError is set.
func (m *Manager) LoadAll(ctx context.Context) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()
	return m.loadAll(ctx)
}

func (m *Manager) loadAll(ctx context.Context) error {
	m.mu.Lock()
	m.state.IsLoadingList = true
	m.mu.Unlock()

	start := time.Now()
	entries, err := m.records.List(ctx, ListPattern, true)
	metrics.ObserveResumeListDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		m.mu.Lock()
		m.state.IsLoadingList = false
		if !errors.Is(err, context.Canceled) {
			m.state.LastError = noticeLoadFailed
		}
		m.mu.Unlock()

		metrics.IncResumeListFailed()
		telemetry.Error("resumes.load_failed", map[string]any{
			"user_id": m.userID,
			"error":   err,
		})
		return fmt.Errorf("list resumes: %w", err)
	}

	decoded := make([]Resume, 0, len(entries))
	skipped := 0
	for _, e := range entries {
		r, err := Decode(e.Value)
		if err != nil {
			skipped++
			telemetry.Warn("resumes.decode_skipped", map[string]any{
				"user_id": m.userID,
				"key":     e.Key,
				"error":   err,
			})
			continue
		}
		decoded = append(decoded, r)
	}
	metrics.IncResumeList()
	metrics.AddDecodeSkipped(skipped)

	m.mu.Lock()
	m.state.Resumes = decoded
	m.state.IsLoadingList = false
	if m.state.LastError == noticeLoadFailed {
		m.state.LastError = ""
	}
	m.mu.Unlock()
	return nil
}

// Get reads one record straight from the store.
func (m *Manager) Get(ctx context.Context, id string) (Resume, error) {
	raw, err := m.records.Get(ctx, RecordKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, fmt.Errorf("get resume %s: %w", id, err)
	}
	r, err := Decode(raw)
	if err != nil {
		return Resume{}, fmt.Errorf("get resume %s: %w", id, err)
	}
	return r, nil
}

// Save writes r and reloads the collection. It disarms bulk confirmation.
func (m *Manager) Save(ctx context.Context, r Resume) (Resume, error) {
	if err := Validate(r); err != nil {
		return Resume{}, err
	}
	if err := m.acquire(); err != nil {
		return Resume{}, err
	}
	defer m.release()
	m.Disarm()

	raw, err := Encode(r)
	if err != nil {
		return Resume{}, err
	}
	if err := m.records.Set(ctx, RecordKey(r.ID), raw); err != nil {
		m.mu.Lock()
		m.state.LastError = noticeSaveFailed
		m.mu.Unlock()
		telemetry.Error("resumes.save_failed", map[string]any{
			"user_id":   m.userID,
			"resume_id": r.ID,
			"error":     err,
		})
		return Resume{}, fmt.Errorf("save resume %s: %w", r.ID, err)
	}
	_ = m.loadAll(ctx)
	return r, nil
}

// DeleteOne deletes r's record and then, best effort, both of its artifacts.
// The caller is expected to have confirmed the action. Only a record-store
// failure is returned as an error; artifact failures are reported and
// recorded in the outcome.
func (m *Manager) DeleteOne(ctx context.Context, r Resume) (DeleteOutcome, error) {
	if err := m.acquire(); err != nil {
		return DeleteOutcome{ResumeID: r.ID}, err
	}
	defer m.release()
	return m.deleteOne(context.WithoutCancel(ctx), r)
}

// DeleteByID resolves id against the loaded collection, falling back to the
// store, and deletes it like DeleteOne. An id unknown everywhere is treated
// as already deleted.
func (m *Manager) DeleteByID(ctx context.Context, id string) (DeleteOutcome, error) {
	if strings.TrimSpace(id) == "" {
		return DeleteOutcome{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	if err := m.acquire(); err != nil {
		return DeleteOutcome{ResumeID: id}, err
	}
	defer m.release()
	ctx = context.WithoutCancel(ctx)

	r, ok := m.lookup(id)
	if !ok {
		stored, err := m.Get(ctx, id)
		switch {
		case err == nil:
			r = stored
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrDecode):
			r = Resume{ID: id}
		default:
			m.mu.Lock()
			m.state.LastError = noticeDeleteFailed
			m.mu.Unlock()
			return DeleteOutcome{ResumeID: id}, err
		}
	}
	return m.deleteOne(ctx, r)
}

func (m *Manager) lookup(id string) (Resume, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.state.Resumes {
		if r.ID == id {
			return r, true
		}
	}
	return Resume{}, false
}

func (m *Manager) deleteOne(ctx context.Context, r Resume) (DeleteOutcome, error) {
	m.mu.Lock()
	m.state.BulkConfirmArmed = false
	m.state.DeletingID = r.ID
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.state.DeletingID = ""
		m.mu.Unlock()
	}()

	out := m.deleteResume(ctx, r)
	if !out.Gone() {
		m.mu.Lock()
		m.state.LastError = noticeDeleteFailed
		m.mu.Unlock()
		return out, fmt.Errorf("delete resume %s: %w", r.ID, out.Record.err)
	}

	// A reload failure is surfaced through LastError; the delete itself succeeded.
	_ = m.loadAll(ctx)
	return out, nil
}

// RequestDeleteAll is the two-step bulk delete gesture. The first call arms
// the confirmation; the next call deletes every loaded resume and disarms
// regardless of outcome.
func (m *Manager) RequestDeleteAll(ctx context.Context) (BulkResult, error) {
	if err := m.acquire(); err != nil {
		return BulkResult{}, err
	}
	defer m.release()

	m.mu.Lock()
	if !m.state.BulkConfirmArmed {
		m.state.BulkConfirmArmed = true
		m.mu.Unlock()
		return BulkResult{Armed: true}, nil
	}
	m.state.BulkConfirmArmed = false
	m.mu.Unlock()

	batch, err := m.deleteAll(context.WithoutCancel(ctx))
	return BulkResult{Outcome: &batch}, err
}

func (m *Manager) deleteAll(ctx context.Context) (BatchOutcome, error) {
	m.mu.Lock()
	targets := append([]Resume(nil), m.state.Resumes...)
	m.state.DeletingID = DeletingAll
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.state.DeletingID = ""
		m.mu.Unlock()
	}()

	metrics.IncBulkDelete()
	batch := BatchOutcome{Items: make([]DeleteOutcome, 0, len(targets))}
	consecutive := 0
	for _, r := range targets {
		if batch.Aborted {
			batch.Items = append(batch.Items, skippedOutcome(r))
			batch.Skipped++
			continue
		}

		out := m.deleteResume(ctx, r)
		batch.Items = append(batch.Items, out)
		if out.Gone() {
			batch.Deleted++
			consecutive = 0
			continue
		}

		batch.Failed++
		if errors.Is(out.Record.err, kv.ErrUnavailable) {
			consecutive++
		} else {
			consecutive = 0
		}
		if m.bulkAbortAfter > 0 && consecutive >= m.bulkAbortAfter {
			batch.Aborted = true
			telemetry.Warn("resumes.bulk_delete_aborted", map[string]any{
				"user_id":     m.userID,
				"consecutive": consecutive,
			})
		}
	}

	_ = m.loadAll(ctx)

	telemetry.Info("resumes.bulk_delete", map[string]any{
		"user_id": m.userID,
		"total":   len(targets),
		"deleted": batch.Deleted,
		"failed":  batch.Failed,
		"skipped": batch.Skipped,
		"aborted": batch.Aborted,
	})
	if batch.Partial() {
		metrics.IncBulkDeletePartial()
		m.mu.Lock()
		m.state.LastError = noticeBatchFailed
		m.mu.Unlock()
		return batch, ErrPartialBatch
	}
	return batch, nil
}

// deleteResume removes the record and, once the record delete has not
// failed, both artifacts in parallel. Artifact failures are reported and
// never change the record outcome.
func (m *Manager) deleteResume(ctx context.Context, r Resume) DeleteOutcome {
	key := RecordKey(r.ID)
	out := DeleteOutcome{ResumeID: r.ID, Record: RecordOutcome{Key: key}}

	err := m.records.Delete(ctx, key)
	switch {
	case err == nil:
		out.Record.Status = StatusDeleted
	case errors.Is(err, kv.ErrNotFound):
		out.Record.Status = StatusNotFound
	default:
		out.Record.Status = StatusFailed
		out.Record.Error = err.Error()
		out.Record.err = err
		metrics.IncResumeDeleteFailed()
		telemetry.Error("resumes.delete_failed", map[string]any{
			"user_id":   m.userID,
			"resume_id": r.ID,
			"error":     err,
		})
		refs := r.artifacts()
		out.Artifacts = make([]ArtifactOutcome, len(refs))
		for i, ref := range refs {
			out.Artifacts[i] = ArtifactOutcome{Kind: ref.Kind, Path: ref.Path, Status: StatusSkipped}
		}
		return out
	}
	metrics.IncResumeDeleted()

	out.Artifacts = m.deleteArtifacts(ctx, r)
	return out
}

func (m *Manager) deleteArtifacts(ctx context.Context, r Resume) []ArtifactOutcome {
	refs := r.artifacts()
	outcomes := make([]ArtifactOutcome, len(refs))

	var g errgroup.Group
	for i, ref := range refs {
		outcomes[i] = ArtifactOutcome{Kind: ref.Kind, Path: ref.Path}
		if strings.TrimSpace(ref.Path) == "" || m.artifacts == nil {
			outcomes[i].Status = StatusSkipped
			continue
		}
		g.Go(func() error {
			err := m.artifacts.Delete(ctx, ref.Path)
			switch {
			case err == nil:
				outcomes[i].Status = StatusDeleted
			case errors.Is(err, object.ErrNotFound):
				outcomes[i].Status = StatusNotFound
			default:
				outcomes[i].Status = StatusFailed
				outcomes[i].Error = err.Error()
				m.reporter.ReportOrphan(ctx, Orphan{
					UserID:   m.userID,
					ResumeID: r.ID,
					Kind:     ref.Kind,
					Path:     ref.Path,
					Err:      err,
				})
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func skippedOutcome(r Resume) DeleteOutcome {
	refs := r.artifacts()
	out := DeleteOutcome{
		ResumeID:  r.ID,
		Record:    RecordOutcome{Key: RecordKey(r.ID), Status: StatusSkipped},
		Artifacts: make([]ArtifactOutcome, len(refs)),
	}
	for i, ref := range refs {
		out.Artifacts[i] = ArtifactOutcome{Kind: ref.Kind, Path: ref.Path, Status: StatusSkipped}
	}
	return out
}
