package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/deckforge/deckforge/internal/deck"
	"github.com/deckforge/deckforge/internal/domain"
	"github.com/deckforge/deckforge/internal/generator"
	"github.com/deckforge/deckforge/internal/renderer"
	redisrepo "github.com/deckforge/deckforge/internal/repository/redis"
	"github.com/deckforge/deckforge/internal/session"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

// VerificationStore caches per-slide verification scores by content
// hash. The redis VerificationCache implements it.
type VerificationStore interface {
	Get(ctx context.Context, contentHash string) (*redisrepo.VerificationResult, error)
	Set(ctx context.Context, result *redisrepo.VerificationResult) error
}

// EditInput is a conversational edit instruction
type EditInput struct {
	Prompt   string `json:"prompt" validate:"required,max=8000"`
	Provider string `json:"provider" validate:"omitempty,max=32"`
	Model    string `json:"model" validate:"omitempty,max=128"`
}

// ExportInput selects an export format
type ExportInput struct {
	Format renderer.Format `json:"format" validate:"required"`
}

// EditResult is the completed-job payload for an edit
type EditResult struct {
	VersionNumber int    `json:"version_number"`
	SlideCount    int    `json:"slide_count"`
	NetChange     int    `json:"net_change"`
	Summary       string `json:"summary"`
	Note          string `json:"note,omitempty"`
	Model         string `json:"model,omitempty"`
	TokensUsed    int    `json:"tokens_used,omitempty"`
	LatencyMs     int64  `json:"latency_ms,omitempty"`
}

// ExportResult is the completed-job payload for an export. Artifact is
// base64 in the JSON encoding.
type ExportResult struct {
	Format    renderer.Format `json:"format"`
	SizeBytes int             `json:"size_bytes"`
	Artifact  []byte          `json:"artifact"`
}

// JobCoordinator runs the long operations, slide generation and export
// rendering, as async jobs behind the submit/poll contract. Submission
// validates synchronously; the work itself runs in a background worker
// that holds the session lock for its whole lifetime.
type JobCoordinator struct {
	jobRepo     domain.JobRepository
	sessionRepo domain.SessionRepository
	deckRepo    domain.DeckRepository
	messageRepo domain.MessageRepository
	versionRepo domain.VersionRepository
	resolver    *PermissionResolver
	locks       *session.Locks
	generators  *generator.Router
	renderer    renderer.Renderer
	verifier    generator.Verifier
	verifyStore VerificationStore

	workerTimeout time.Duration
	retention     time.Duration
}

// terminalWriteTimeout bounds the job-record writes that must land even
// after the worker's own deadline has expired.
const terminalWriteTimeout = 10 * time.Second

// NewJobCoordinator creates a new job coordinator
func NewJobCoordinator(
	jobRepo domain.JobRepository,
	sessionRepo domain.SessionRepository,
	deckRepo domain.DeckRepository,
	messageRepo domain.MessageRepository,
	versionRepo domain.VersionRepository,
	resolver *PermissionResolver,
	locks *session.Locks,
	generators *generator.Router,
	rend renderer.Renderer,
	verifier generator.Verifier,
	verifyStore VerificationStore,
	workerTimeout, retention time.Duration,
) *JobCoordinator {
	if workerTimeout <= 0 {
		workerTimeout = 10 * time.Minute
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if verifier == nil {
		verifier = generator.NopVerifier{}
	}
	return &JobCoordinator{
		jobRepo:       jobRepo,
		sessionRepo:   sessionRepo,
		deckRepo:      deckRepo,
		messageRepo:   messageRepo,
		versionRepo:   versionRepo,
		resolver:      resolver,
		locks:         locks,
		generators:    generators,
		renderer:      rend,
		verifier:      verifier,
		verifyStore:   verifyStore,
		workerTimeout: workerTimeout,
		retention:     retention,
	}
}

// SubmitEdit validates, records a pending job, and starts the edit worker.
// When the session is already busy the job is recorded failed and
// ErrSessionBusy is returned alongside it, so the caller can surface both
// the conflict and a pollable record.
func (c *JobCoordinator) SubmitEdit(ctx context.Context, userID, sessionID uuid.UUID, input *EditInput) (*domain.GenerationJob, error) {
	sess, err := c.authorizeEdit(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	// Catch an unknown or unconfigured provider before any job exists.
	if _, err := c.generators.GetProvider(input.Provider); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	job, err := c.createJob(ctx, sessionID, domain.JobKindEdit)
	if err != nil {
		return nil, err
	}

	if !c.locks.TryAcquire(sessionID) {
		return c.failBusy(ctx, job)
	}

	go c.runEdit(job.RequestID, sess, input)
	return job, nil
}

// SubmitExport validates, records a pending job, and starts the export
// worker. Export needs only read access but still takes the session lock
// so it renders a consistent deck.
func (c *JobCoordinator) SubmitExport(ctx context.Context, userID, sessionID uuid.UUID, input *ExportInput) (*domain.GenerationJob, error) {
	sess, err := c.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, domain.ErrNotFound
	}
	allowed, err := c.resolver.CanRead(ctx, userID, sess)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrPermissionDenied
	}
	if !renderer.ValidFormat(input.Format) {
		return nil, fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidRange, input.Format)
	}

	job, err := c.createJob(ctx, sessionID, domain.JobKindExport)
	if err != nil {
		return nil, err
	}

	if !c.locks.TryAcquire(sessionID) {
		return c.failBusy(ctx, job)
	}

	go c.runExport(job.RequestID, sessionID, input.Format)
	return job, nil
}

// Poll returns the job record for a request ID
func (c *JobCoordinator) Poll(ctx context.Context, requestID string) (*domain.GenerationJob, error) {
	job, err := c.jobRepo.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

// ReconcileStale fails every non-terminal job. Run once at startup: a job
// that was processing when the previous process died can never complete,
// and its lock died with the process.
func (c *JobCoordinator) ReconcileStale(ctx context.Context) error {
	n, err := c.jobRepo.FailStale(ctx, "interrupted by server restart; resubmit the operation")
	if err != nil {
		return fmt.Errorf("failed to reconcile stale jobs: %w", err)
	}
	if n > 0 {
		log.Warn().Int64("count", n).Msg("failed stale jobs from previous run")
	}
	return nil
}

// StartSweeper deletes expired terminal jobs on a fixed interval until
// ctx is cancelled
func (c *JobCoordinator) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := c.jobRepo.DeleteExpired(ctx, time.Now().Add(-c.retention))
				if err != nil {
					log.Error().Err(err).Msg("job sweep failed")
					continue
				}
				if n > 0 {
					log.Debug().Int64("count", n).Msg("swept expired jobs")
				}
			}
		}
	}()
}

func (c *JobCoordinator) authorizeEdit(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	sess, err := c.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if sess == nil {
		return nil, domain.ErrNotFound
	}
	allowed, err := c.resolver.CanEdit(ctx, userID, sess)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrPermissionDenied
	}
	return sess, nil
}

func (c *JobCoordinator) createJob(ctx context.Context, sessionID uuid.UUID, kind domain.JobKind) (*domain.GenerationJob, error) {
	job := &domain.GenerationJob{
		RequestID: ulid.Make().String(),
		SessionID: sessionID,
		Kind:      kind,
		Status:    domain.JobStatusPending,
		CreatedAt: time.Now(),
	}
	if err := c.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return job, nil
}

// failBusy records the busy outcome on the job and returns it with
// ErrSessionBusy. The lock was never acquired on this path.
func (c *JobCoordinator) failBusy(ctx context.Context, job *domain.GenerationJob) (*domain.GenerationJob, error) {
	const msg = "session busy: another operation is in flight"
	if err := c.jobRepo.Fail(ctx, job.RequestID, msg); err != nil {
		log.Error().Err(err).Str("request_id", job.RequestID).Msg("failed to record busy job")
	}
	job.Status = domain.JobStatusFailed
	job.ErrorMessage = msg
	now := time.Now()
	job.CompletedAt = &now
	return job, domain.ErrSessionBusy
}

// runEdit is the edit worker. It owns the session lock from entry to
// return and is the only writer of the job's terminal state.
func (c *JobCoordinator) runEdit(requestID string, sess *domain.Session, input *EditInput) {
	ctx, cancel := context.WithTimeout(context.Background(), c.workerTimeout)
	defer cancel()
	defer c.locks.Release(sess.ID)

	if err := c.jobRepo.MarkProcessing(ctx, requestID); err != nil {
		c.fail(requestID, fmt.Errorf("failed to mark job processing: %w", err))
		return
	}

	live, err := c.deckRepo.GetLive(ctx, sess.ID)
	if err != nil {
		c.fail(requestID, fmt.Errorf("failed to load deck: %w", err))
		return
	}
	if live == nil {
		live = &domain.SlideDeck{Slides: []domain.Slide{}}
	}

	transcript, err := c.messageRepo.ListBySession(ctx, sess.ID, 20)
	if err != nil {
		c.fail(requestID, fmt.Errorf("failed to load transcript: %w", err))
		return
	}

	userMsg := &domain.ChatMessage{
		ID:        uuid.New(),
		SessionID: sess.ID,
		Role:      domain.RoleUser,
		Content:   input.Prompt,
		CreatedAt: time.Now(),
	}
	if err := c.messageRepo.Create(ctx, userMsg); err != nil {
		c.fail(requestID, fmt.Errorf("failed to record prompt: %w", err))
		return
	}

	provider, err := c.generators.GetProvider(input.Provider)
	if err != nil {
		c.fail(requestID, fmt.Errorf("%w: %v", domain.ErrExternalService, err))
		return
	}

	resp, err := provider.GenerateSlides(ctx, generator.Request{
		Prompt:     input.Prompt,
		Deck:       live,
		Transcript: transcript,
		Profile:    sess.Profile,
	}, input.Model)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidRange) && !errors.Is(err, domain.ErrExternalService) {
			err = fmt.Errorf("%w: %v", domain.ErrExternalService, err)
		}
		c.fail(requestID, err)
		return
	}

	merged, delta, err := deck.ApplyReplacement(live, resp.Replacement)
	if err != nil {
		c.fail(requestID, err)
		return
	}
	if resp.CSS != "" {
		merged.CSS = resp.CSS
	}
	merged.ScriptURLs = mergeURLs(merged.ScriptURLs, resp.ScriptURLs)

	c.verifySlides(ctx, merged)

	if err := c.deckRepo.SaveLive(ctx, sess.ID, merged); err != nil {
		c.fail(requestID, fmt.Errorf("failed to save deck: %w", err))
		return
	}

	note := resp.Note
	if note == "" {
		note = fmt.Sprintf("Updated deck (%s).", delta.Summary)
	}
	assistantMsg := &domain.ChatMessage{
		ID:        uuid.New(),
		SessionID: sess.ID,
		Role:      domain.RoleAssistant,
		Content:   note,
		CreatedAt: time.Now(),
	}
	if err := c.messageRepo.Create(ctx, assistantMsg); err != nil {
		c.fail(requestID, fmt.Errorf("failed to record reply: %w", err))
		return
	}

	history, err := c.messageRepo.ListBySession(ctx, sess.ID, 0)
	if err != nil {
		c.fail(requestID, fmt.Errorf("failed to snapshot transcript: %w", err))
		return
	}

	version, err := c.versionRepo.Create(ctx, sess.ID, merged, history, input.Prompt)
	if err != nil {
		c.fail(requestID, fmt.Errorf("failed to create version: %w", err))
		return
	}
	if err := c.sessionRepo.SetCurrentVersion(ctx, sess.ID, version.VersionNumber); err != nil {
		c.fail(requestID, fmt.Errorf("failed to set current version: %w", err))
		return
	}

	result, err := json.Marshal(EditResult{
		VersionNumber: version.VersionNumber,
		SlideCount:    merged.SlideCount,
		NetChange:     delta.NetChange,
		Summary:       delta.Summary,
		Note:          resp.Note,
		Model:         resp.Model,
		TokensUsed:    resp.TokensUsed,
		LatencyMs:     resp.LatencyMs,
	})
	if err != nil {
		c.fail(requestID, fmt.Errorf("failed to encode result: %w", err))
		return
	}

	if err := c.complete(requestID, result); err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to complete job")
		return
	}

	log.Info().
		Str("request_id", requestID).
		Str("session_id", sess.ID.String()).
		Int("version", version.VersionNumber).
		Int("slides", merged.SlideCount).
		Str("delta", delta.Summary).
		Msg("edit completed")
}

// runExport is the export worker
func (c *JobCoordinator) runExport(requestID string, sessionID uuid.UUID, format renderer.Format) {
	ctx, cancel := context.WithTimeout(context.Background(), c.workerTimeout)
	defer cancel()
	defer c.locks.Release(sessionID)

	if err := c.jobRepo.MarkProcessing(ctx, requestID); err != nil {
		c.fail(requestID, fmt.Errorf("failed to mark job processing: %w", err))
		return
	}

	live, err := c.deckRepo.GetLive(ctx, sessionID)
	if err != nil {
		c.fail(requestID, fmt.Errorf("failed to load deck: %w", err))
		return
	}
	if live == nil || len(live.Slides) == 0 {
		c.fail(requestID, fmt.Errorf("nothing to export: deck is empty"))
		return
	}

	artifact, err := c.renderer.Render(ctx, live, format)
	if err != nil {
		c.fail(requestID, err)
		return
	}

	result, err := json.Marshal(ExportResult{
		Format:    format,
		SizeBytes: len(artifact),
		Artifact:  artifact,
	})
	if err != nil {
		c.fail(requestID, fmt.Errorf("failed to encode result: %w", err))
		return
	}

	if err := c.complete(requestID, result); err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to complete job")
		return
	}

	log.Info().
		Str("request_id", requestID).
		Str("session_id", sessionID.String()).
		Str("format", string(format)).
		Int("size_bytes", len(artifact)).
		Msg("export completed")
}

// verifySlides scores each slide, consulting the content-addressed cache
// first so unchanged slides are never re-verified. Verification is best
// effort and never fails the job.
func (c *JobCoordinator) verifySlides(ctx context.Context, d *domain.SlideDeck) {
	for i := range d.Slides {
		hash := d.Slides[i].ContentHash
		if hash == "" {
			continue
		}
		if c.verifyStore != nil {
			cached, err := c.verifyStore.Get(ctx, hash)
			if err == nil && cached != nil {
				continue
			}
		}
		score, err := c.verifier.Score(ctx, d.Slides[i].HTML)
		if err != nil {
			log.Warn().Err(err).Str("slide_id", d.Slides[i].SlideID).Msg("slide verification failed")
			continue
		}
		if c.verifyStore != nil {
			err := c.verifyStore.Set(ctx, &redisrepo.VerificationResult{
				ContentHash: hash,
				Score:       score,
				VerifiedAt:  time.Now(),
			})
			if err != nil {
				log.Warn().Err(err).Str("slide_id", d.Slides[i].SlideID).Msg("failed to cache verification")
			}
		}
	}
}

// fail writes the terminal failed status on a fresh context. The worker
// context is often already past its deadline when the cause is a
// timeout, and issuing the write on it would leave the row processing
// until the next restart.
func (c *JobCoordinator) fail(requestID string, cause error) {
	log.Error().Err(cause).Str("request_id", requestID).Msg("job failed")
	ctx, cancel := context.WithTimeout(context.Background(), terminalWriteTimeout)
	defer cancel()
	if err := c.jobRepo.Fail(ctx, requestID, cause.Error()); err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to record job failure")
	}
}

// complete writes the terminal completed status on a fresh context, for
// the same reason fail does.
func (c *JobCoordinator) complete(requestID string, result json.RawMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), terminalWriteTimeout)
	defer cancel()
	return c.jobRepo.Complete(ctx, requestID, result)
}

func mergeURLs(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, u := range existing {
		seen[u] = struct{}{}
	}
	for _, u := range incoming {
		if _, ok := seen[u]; !ok {
			existing = append(existing, u)
			seen[u] = struct{}{}
		}
	}
	return existing
}
