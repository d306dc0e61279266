// Package sweeper retries artifact deletes that failed during a resume
// delete. Messages arrive from the orphan queue; a missing object counts as
// swept.
package sweeper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/AhmeWagih/resume-analyzer/internal/queue"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/metrics"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/storage/object"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/telemetry"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/util"
)

// DefaultMaxReceives is how many deliveries an orphan gets before it is abandoned.
const DefaultMaxReceives = 5

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrInvalidMessage indicates a decoded message that can never be processed.
type ErrInvalidMessage struct {
	Meta   MessageMeta
	Reason string
}

func (e ErrInvalidMessage) Error() string { return "invalid orphan message: " + e.Reason }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	switch {
	case msg.Version > queue.MessageVersion:
		return msg, meta, ErrInvalidMessage{Meta: meta, Reason: fmt.Sprintf("unsupported version %d", msg.Version)}
	case strings.TrimSpace(msg.UserID) == "":
		return msg, meta, ErrInvalidMessage{Meta: meta, Reason: "missing user id"}
	case strings.TrimSpace(msg.Path) == "":
		return msg, meta, ErrInvalidMessage{Meta: meta, Reason: "missing path"}
	case !util.OwnsKey(msg.UserID, msg.Path):
		return msg, meta, ErrInvalidMessage{Meta: meta, Reason: "path outside user namespace"}
	}
	return msg, meta, nil
}

// Result is what the caller should do with the queue message.
type Result int

const (
	// Retry leaves the message on the queue for redelivery.
	Retry Result = iota
	// Done means the artifact is gone; acknowledge the message.
	Done
	// Abandoned means retries are exhausted; acknowledge and stop trying.
	Abandoned
)

func (r Result) String() string {
	switch r {
	case Done:
		return "done"
	case Abandoned:
		return "abandoned"
	default:
		return "retry"
	}
}

// Sweeper deletes orphaned artifacts.
type Sweeper struct {
	Store       object.ObjectStore
	MaxReceives int
}

// New constructs a Sweeper. maxReceives <= 0 uses DefaultMaxReceives.
func New(store object.ObjectStore, maxReceives int) *Sweeper {
	if maxReceives <= 0 {
		maxReceives = DefaultMaxReceives
	}
	return &Sweeper{Store: store, MaxReceives: maxReceives}
}

// Handle retries the delete for msg. receiveCount is the delivery attempt
// reported by the queue (1 on first delivery).
func (s *Sweeper) Handle(ctx context.Context, msg queue.Message, receiveCount int) (Result, error) {
	if s == nil || s.Store == nil {
		return Retry, errors.New("sweeper not configured")
	}
	fields := map[string]any{
		"user_id":       msg.UserID,
		"resume_id":     msg.ResumeID,
		"kind":          msg.Kind,
		"path":          msg.Path,
		"receive_count": receiveCount,
	}

	err := s.Store.Delete(ctx, msg.Path)
	switch {
	case err == nil:
		metrics.IncOrphanSwept()
		telemetry.Info("sweeper.orphan_deleted", fields)
		return Done, nil
	case errors.Is(err, object.ErrNotFound):
		metrics.IncOrphanSwept()
		telemetry.Info("sweeper.orphan_already_gone", fields)
		return Done, nil
	}

	fields["error"] = err
	if receiveCount >= s.MaxReceives {
		metrics.IncOrphanAbandoned()
		telemetry.Error("sweeper.orphan_abandoned", fields)
		return Abandoned, err
	}
	telemetry.Warn("sweeper.orphan_retry", fields)
	return Retry, err
}
