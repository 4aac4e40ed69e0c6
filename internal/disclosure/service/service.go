// Package service orchestrates emergency disclosure: role gate, validation,
// matching, persistence and the access log.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sidesa/internal/disclosure/matcher"
	"sidesa/internal/disclosure/metrics"
	"sidesa/internal/disclosure/models"
	"sidesa/internal/disclosure/ports"
	"sidesa/internal/disclosure/rules"
	"sidesa/pkg/domain"
	dErrors "sidesa/pkg/domain-errors"
	audit "sidesa/pkg/platform/audit"
	"sidesa/pkg/platform/sentinel"
	"sidesa/pkg/requestcontext"
)

const (
	defaultStoreTimeout   = 5 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour

	anonymousPerformer = "anonymous"
)

// Service implements the disclosure operations. Every call re-reads the
// caller's role from ctx; nothing about authorization is cached.
type Service struct {
	registry       ports.RegistryPort
	store          ports.DisclosureStore
	audit          ports.AuditPort
	tx             ports.TxRunner
	idempotency    ports.IdempotencyStore
	idempotencyTTL time.Duration
	storeTimeout   time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithIdempotency enables Idempotency-Key replay backed by store.
func WithIdempotency(store ports.IdempotencyStore, ttl time.Duration) Option {
	return func(s *Service) {
		s.idempotency = store
		if ttl > 0 {
			s.idempotencyTTL = ttl
		}
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(registry ports.RegistryPort, store ports.DisclosureStore, auditPort ports.AuditPort, tx ports.TxRunner, opts ...Option) *Service {
	s := &Service{
		registry:       registry,
		store:          store,
		audit:          auditPort,
		tx:             tx,
		idempotencyTTL: defaultIdempotencyTTL,
		storeTimeout:   defaultStoreTimeout,
		logger:         slog.Default(),
		tracer:         otel.Tracer("sidesa/internal/disclosure"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates, matches and persists a disclosure request. Exactly one
// access log entry is appended whatever the outcome.
func (s *Service) Submit(ctx context.Context, sub models.Submission) (*models.SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "disclosure.Submit")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveSubmitLatency(time.Since(start)) }()

	sub.Normalize()
	caller := requestcontext.Operator(ctx)
	span.SetAttributes(attribute.String("disclosure.ticket_code", sub.TicketCode))
	base := audit.Entry{PerformedBy: performer(caller), TicketCode: sub.TicketCode}

	if err := rules.CheckRole(caller.Role); err != nil {
		s.metrics.IncrementSubmission(metrics.OutcomeDenied)
		return nil, s.refuse(ctx, span, base, audit.ActionAccessDenied, err)
	}

	if result, replayed, err := s.replayIfKnown(ctx, caller, sub, base); replayed || err != nil {
		return result, err
	}

	var report *matcher.Report
	if sub.TicketCode != "" {
		var err error
		report, err = s.registry.FindReportByTicket(ctx, sub.TicketCode)
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.metrics.IncrementSubmission(metrics.OutcomeFailed)
			return nil, s.refuse(ctx, span, base, audit.ActionRequestFailed, asDependency(err, "report lookup failed"))
		}
	}

	if err := rules.Validate(rules.Input{
		RequesterRole:    caller.Role,
		TicketCode:       sub.TicketCode,
		TicketFound:      report != nil,
		RequestReason:    sub.RequestReason,
		AuthorizedBy:     sub.AuthorizedBy,
		OfficialDocument: sub.OfficialDocument,
	}); err != nil {
		s.metrics.IncrementSubmission(metrics.OutcomeRejected)
		return nil, s.refuse(ctx, span, base, audit.ActionRequestRejected, err)
	}

	population, err := s.registry.FindBySubRegion(ctx, report.SubRegion)
	if err != nil {
		s.metrics.IncrementSubmission(metrics.OutcomeFailed)
		return nil, s.refuse(ctx, span, base, audit.ActionRequestFailed, asDependency(err, "population registry lookup failed"))
	}
	candidates := s.match(ctx, *report, population)

	req, err := models.NewDisclosureRequest(
		domain.NewDisclosureID(),
		sub.TicketCode,
		caller.ID,
		sub.RequestReason,
		sub.OfficialDocument,
		sub.AuthorizedBy,
		candidates,
		requestcontext.Now(ctx),
	)
	if err != nil {
		s.metrics.IncrementSubmission(metrics.OutcomeFailed)
		return nil, s.refuse(ctx, span, base, audit.ActionRequestFailed, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build disclosure request"))
	}

	matched := base
	matched.Action = audit.ActionMatchComputed
	matched.DisclosureID = req.ID
	matched.CreatedAt = req.CreatedAt
	matched.Detail = fmt.Sprintf("%d candidates", len(req.DisclosedNIKs))

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Insert(txCtx, req); err != nil {
			return err
		}
		if err := s.audit.Record(txCtx, matched); err != nil {
			// memory stores have no rollback
			_ = s.store.Delete(txCtx, req.ID)
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.IncrementSubmission(metrics.OutcomeConflict)
			return nil, s.refuse(ctx, span, base, audit.ActionRequestRejected,
				dErrors.NewReason(dErrors.CodeConflict, rules.ReasonTicketAlreadyDisclosed, "ticket already has a disclosure request"))
		}
		s.metrics.IncrementSubmission(metrics.OutcomeFailed)
		return nil, s.refuse(ctx, span, base, audit.ActionRequestFailed, asDependency(err, "failed to persist disclosure request"))
	}

	s.rememberKey(ctx, caller, sub.IdempotencyKey, req.ID)
	s.metrics.IncrementSubmission(metrics.OutcomeMatched)
	s.metrics.ObserveCandidates(len(req.DisclosedNIKs))
	s.logAudit(ctx, string(audit.ActionMatchComputed),
		"disclosure_id", req.ID.String(),
		"ticket_code", req.TicketCode,
		"performed_by", caller.ID,
		"candidates", len(req.DisclosedNIKs),
	)

	return &models.SubmitResult{
		RequestID:   req.ID,
		TicketCode:  req.TicketCode,
		Candidates:  req.DisclosedNIKs,
		DisclosedAt: req.CreatedAt,
		Approximate: true,
	}, nil
}

// History returns every stored disclosure request, oldest first.
func (s *Service) History(ctx context.Context) ([]*models.DisclosureRequest, error) {
	caller := requestcontext.Operator(ctx)
	base := audit.Entry{PerformedBy: performer(caller)}

	if err := rules.CheckRole(caller.Role); err != nil {
		s.metrics.IncrementOperation("history", metrics.OutcomeDenied)
		return nil, s.refuse(ctx, nil, base, audit.ActionAccessDenied, err)
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	requests, err := s.store.List(readCtx)
	if err != nil {
		s.metrics.IncrementOperation("history", metrics.OutcomeFailed)
		return nil, s.refuse(ctx, nil, base, audit.ActionRequestFailed, asDependency(err, "failed to list disclosure requests"))
	}

	viewed := base
	viewed.Action = audit.ActionDisclosureViewed
	viewed.Detail = fmt.Sprintf("history: %d requests", len(requests))
	if err := s.audit.Record(ctx, viewed); err != nil {
		s.metrics.IncrementOperation("history", metrics.OutcomeFailed)
		return nil, asDependency(err, "failed to record disclosure view")
	}

	s.metrics.IncrementOperation("history", "ok")
	s.logAudit(ctx, string(audit.ActionDisclosureViewed),
		"performed_by", caller.ID,
		"count", len(requests),
	)
	return requests, nil
}

// Get returns one stored disclosure request. The candidate list is replayed
// as stored; it is never recomputed.
func (s *Service) Get(ctx context.Context, id domain.DisclosureID) (*models.DisclosureRequest, error) {
	caller := requestcontext.Operator(ctx)
	base := audit.Entry{PerformedBy: performer(caller), DisclosureID: id}

	if err := rules.CheckRole(caller.Role); err != nil {
		s.metrics.IncrementOperation("get", metrics.OutcomeDenied)
		return nil, s.refuse(ctx, nil, base, audit.ActionAccessDenied, err)
	}

	req, err := s.findRequest(ctx, id)
	if err != nil {
		s.metrics.IncrementOperation("get", outcomeFor(err))
		return nil, s.refuse(ctx, nil, base, actionFor(err), err)
	}
	if err := s.recordView(ctx, base, req, "disclosure viewed"); err != nil {
		s.metrics.IncrementOperation("get", metrics.OutcomeFailed)
		return nil, err
	}
	s.metrics.IncrementOperation("get", "ok")
	return req, nil
}

// AccessLogs returns the access log, oldest first. Listing the log does not
// append to it unless the caller is refused.
func (s *Service) AccessLogs(ctx context.Context) ([]audit.Entry, error) {
	caller := requestcontext.Operator(ctx)
	if err := rules.CheckRole(caller.Role); err != nil {
		s.metrics.IncrementOperation("access_logs", metrics.OutcomeDenied)
		return nil, s.refuse(ctx, nil, audit.Entry{PerformedBy: performer(caller), Detail: "access logs"}, audit.ActionAccessDenied, err)
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	entries, err := s.audit.List(readCtx)
	if err != nil {
		s.metrics.IncrementOperation("access_logs", metrics.OutcomeFailed)
		return nil, asDependency(err, "failed to list access logs")
	}
	s.metrics.IncrementOperation("access_logs", "ok")
	return entries, nil
}

// DeleteRequest hard-removes a disclosure request. This is the administrative
// override; the removal itself is recorded as a permanent record-deleted entry.
func (s *Service) DeleteRequest(ctx context.Context, id domain.DisclosureID) error {
	caller := requestcontext.Operator(ctx)
	base := audit.Entry{PerformedBy: performer(caller), DisclosureID: id}

	if err := rules.CheckRole(caller.Role); err != nil {
		s.metrics.IncrementOperation("delete_request", metrics.OutcomeDenied)
		return s.refuse(ctx, nil, base, audit.ActionAccessDenied, err)
	}

	req, err := s.findRequest(ctx, id)
	if err != nil {
		s.metrics.IncrementOperation("delete_request", outcomeFor(err))
		return s.refuse(ctx, nil, base, actionFor(err), err)
	}
	base.TicketCode = req.TicketCode

	deleted := base
	deleted.Action = audit.ActionRecordDeleted
	deleted.Detail = fmt.Sprintf("disclosure request %s deleted by administrative override", id)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Delete(txCtx, id); err != nil {
			return err
		}
		if err := s.audit.Record(txCtx, deleted); err != nil {
			// memory stores have no rollback
			_ = s.store.Insert(txCtx, req)
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementOperation("delete_request", metrics.OutcomeRejected)
			return s.refuse(ctx, nil, base, audit.ActionRequestRejected, dErrors.New(dErrors.CodeNotFound, "disclosure request not found"))
		}
		s.metrics.IncrementOperation("delete_request", metrics.OutcomeFailed)
		return s.refuse(ctx, nil, base, audit.ActionRequestFailed, asDependency(err, "failed to delete disclosure request"))
	}

	s.metrics.IncrementOperation("delete_request", "ok")
	s.logAudit(ctx, string(audit.ActionRecordDeleted),
		"disclosure_id", id.String(),
		"ticket_code", req.TicketCode,
		"performed_by", caller.ID,
	)
	return nil
}

// DeleteLog removes one access log entry through the administrative override.
// record-deleted entries are permanent and cannot be removed.
func (s *Service) DeleteLog(ctx context.Context, id domain.LogEntryID) error {
	caller := requestcontext.Operator(ctx)
	base := audit.Entry{PerformedBy: performer(caller), Detail: "access log entry " + id.String()}

	if err := rules.CheckRole(caller.Role); err != nil {
		s.metrics.IncrementOperation("delete_log", metrics.OutcomeDenied)
		return s.refuse(ctx, nil, base, audit.ActionAccessDenied, err)
	}

	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	target, err := s.audit.Find(readCtx, id)
	cancel()
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = dErrors.New(dErrors.CodeNotFound, "access log entry not found")
		} else {
			err = asDependency(err, "failed to load access log entry")
		}
		s.metrics.IncrementOperation("delete_log", outcomeFor(err))
		return s.refuse(ctx, nil, base, actionFor(err), err)
	}
	if !target.Action.Deletable() {
		s.metrics.IncrementOperation("delete_log", metrics.OutcomeRejected)
		return s.refuse(ctx, nil, base, audit.ActionRequestRejected,
			dErrors.New(dErrors.CodeForbidden, "record-deleted entries cannot be removed"))
	}

	deleted := base
	deleted.Action = audit.ActionRecordDeleted
	deleted.TicketCode = target.TicketCode
	deleted.DisclosureID = target.DisclosureID
	deleted.Detail = fmt.Sprintf("access log entry %s (%s) deleted by administrative override", id, target.Action)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.audit.Remove(txCtx, id); err != nil {
			return err
		}
		if err := s.audit.Record(txCtx, deleted); err != nil {
			// memory stores have no rollback
			_ = s.audit.Record(txCtx, *target)
			return err
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			err = dErrors.New(dErrors.CodeNotFound, "access log entry not found")
		case errors.Is(err, sentinel.ErrImmutable):
			err = dErrors.New(dErrors.CodeForbidden, "record-deleted entries cannot be removed")
		default:
			err = asDependency(err, "failed to delete access log entry")
		}
		s.metrics.IncrementOperation("delete_log", outcomeFor(err))
		return s.refuse(ctx, nil, base, actionFor(err), err)
	}

	s.metrics.IncrementOperation("delete_log", "ok")
	s.logAudit(ctx, string(audit.ActionRecordDeleted),
		"log_entry_id", id.String(),
		"deleted_action", string(target.Action),
		"performed_by", caller.ID,
	)
	return nil
}

func (s *Service) match(ctx context.Context, report matcher.Report, population []matcher.Resident) []models.Candidate {
	_, span := s.tracer.Start(ctx, "disclosure.Match")
	defer span.End()
	candidates := matcher.Match(report, population)
	span.SetAttributes(
		attribute.Int("disclosure.population", len(population)),
		attribute.Int("disclosure.candidates", len(candidates)),
	)
	return candidates
}

// replayIfKnown answers a resubmission whose idempotency key already produced
// a request. The replay is recorded as a view.
func (s *Service) replayIfKnown(ctx context.Context, caller requestcontext.Caller, sub models.Submission, base audit.Entry) (*models.SubmitResult, bool, error) {
	if s.idempotency == nil || sub.IdempotencyKey == "" {
		return nil, false, nil
	}
	id, err := s.idempotency.Get(ctx, idempotencyKey(caller, sub.IdempotencyKey))
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "idempotency lookup failed; processing as new submission",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		return nil, false, nil
	}

	req, err := s.findRequest(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, false, nil
		}
		s.metrics.IncrementSubmission(metrics.OutcomeFailed)
		return nil, true, s.refuse(ctx, nil, base, audit.ActionRequestFailed, err)
	}
	if req.TicketCode != sub.TicketCode {
		s.metrics.IncrementSubmission(metrics.OutcomeRejected)
		return nil, true, s.refuse(ctx, nil, base, audit.ActionRequestRejected,
			dErrors.New(dErrors.CodeConflict, "idempotency key was used for a different ticket"))
	}
	if err := s.recordView(ctx, base, req, "idempotent replay"); err != nil {
		s.metrics.IncrementSubmission(metrics.OutcomeFailed)
		return nil, true, err
	}

	s.metrics.IncrementSubmission(metrics.OutcomeReplayed)
	return &models.SubmitResult{
		RequestID:   req.ID,
		TicketCode:  req.TicketCode,
		Candidates:  req.DisclosedNIKs,
		DisclosedAt: req.CreatedAt,
		Approximate: true,
		Replayed:    true,
	}, true, nil
}

func (s *Service) rememberKey(ctx context.Context, caller requestcontext.Caller, key string, id domain.DisclosureID) {
	if s.idempotency == nil || key == "" {
		return
	}
	if err := s.idempotency.Put(ctx, idempotencyKey(caller, key), id, s.idempotencyTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to store idempotency key",
			"request_id", requestcontext.RequestID(ctx),
			"disclosure_id", id.String(),
			"error", err,
		)
	}
}

func (s *Service) findRequest(ctx context.Context, id domain.DisclosureID) (*models.DisclosureRequest, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	req, err := s.store.FindByID(readCtx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "disclosure request not found")
		}
		return nil, asDependency(err, "failed to load disclosure request")
	}
	return req, nil
}

// recordView appends a disclosure-viewed entry. Reads fail closed: no stored
// result is returned without its trace.
func (s *Service) recordView(ctx context.Context, base audit.Entry, req *models.DisclosureRequest, detail string) error {
	viewed := base
	viewed.Action = audit.ActionDisclosureViewed
	viewed.DisclosureID = req.ID
	viewed.TicketCode = req.TicketCode
	viewed.Detail = detail
	if err := s.audit.Record(ctx, viewed); err != nil {
		return asDependency(err, "failed to record disclosure view")
	}
	s.logAudit(ctx, string(audit.ActionDisclosureViewed),
		"disclosure_id", req.ID.String(),
		"ticket_code", req.TicketCode,
		"performed_by", base.PerformedBy,
		"detail", detail,
	)
	return nil
}

// refuse records a failed or refused operation and returns cause unchanged.
// A failure to record is logged; it never masks cause.
func (s *Service) refuse(ctx context.Context, span trace.Span, base audit.Entry, action audit.Action, cause error) error {
	entry := base
	entry.Action = action
	entry.Detail = refusalDetail(base.Detail, cause)
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "CRITICAL: failed to record refused disclosure operation",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(action),
			"performed_by", base.PerformedBy,
			"error", err,
		)
	}
	s.logAudit(ctx, string(action),
		"performed_by", base.PerformedBy,
		"ticket_code", base.TicketCode,
		"code", string(dErrors.CodeOf(cause)),
		"reason", dErrors.ReasonOf(cause),
	)
	if span != nil {
		span.RecordError(cause)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(cause)))
	}
	return cause
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, event, args...)
}

func refusalDetail(prefix string, cause error) string {
	detail := string(dErrors.CodeOf(cause))
	if reason := dErrors.ReasonOf(cause); reason != "" {
		detail += ": " + reason
	}
	if prefix != "" {
		detail = prefix + " (" + detail + ")"
	}
	return detail
}

func actionFor(err error) audit.Action {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeForbidden:
		return audit.ActionRequestRejected
	case dErrors.CodeDependency, dErrors.CodeInternal, dErrors.CodeTimeout:
		return audit.ActionRequestFailed
	default:
		return audit.ActionRequestRejected
	}
}

func outcomeFor(err error) string {
	if actionFor(err) == audit.ActionRequestFailed {
		return metrics.OutcomeFailed
	}
	return metrics.OutcomeRejected
}

// asDependency keeps coded errors and wraps anything else as a dependency failure.
func asDependency(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeDependency, msg)
}

func performer(c requestcontext.Caller) string {
	if c.ID == "" {
		return anonymousPerformer
	}
	return c.ID
}

func idempotencyKey(c requestcontext.Caller, key string) string {
	return c.ID + ":" + key
}
