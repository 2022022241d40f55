package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"notevault/internal/dto"
	"notevault/internal/entity"
	"notevault/internal/pkg/logger"
	"notevault/pkg/access"
	"notevault/pkg/address"
	"notevault/pkg/events"
	"notevault/pkg/fault"
	"notevault/pkg/identity"
	"notevault/pkg/ledger"
	pktNats "notevault/pkg/nats"
	"notevault/pkg/store"
	"notevault/pkg/validation"
)

const vaultModule = "VaultService"

type IVaultService interface {
	OpenSession(ctx context.Context, owner identity.PublicKey) (*store.Session, error)
	Refresh(ctx context.Context, s *store.Session) (*entity.LocalView, error)
	Create(ctx context.Context, s *store.Session, req *dto.CreateNoteRequest) (*dto.OperationResult, error)
	BeginEdit(ctx context.Context, s *store.Session, addr address.Address) error
	SetBuffer(ctx context.Context, s *store.Session, content string) error
	CancelEdit(ctx context.Context, s *store.Session) error
	Save(ctx context.Context, s *store.Session) (*dto.OperationResult, error)
	Delete(ctx context.Context, s *store.Session, addr address.Address) (*dto.OperationResult, error)
	View(s *store.Session) *dto.SessionResponse
}

type vaultService struct {
	program          identity.PublicKey
	gateway          ledger.Gateway
	guard            *access.Guard
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
	clock            func() time.Time
}

func NewVaultService(
	program identity.PublicKey,
	gateway ledger.Gateway,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IVaultService {
	return &vaultService{
		program:          program,
		gateway:          gateway,
		guard:            access.NewGuard(),
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
		clock:            time.Now,
	}
}

// OpenSession starts a session in Viewing and loads its first Local View. A
// failed initial load still yields a usable session whose view is stale.
func (v *vaultService) OpenSession(ctx context.Context, owner identity.PublicKey) (*store.Session, error) {
	if owner.IsZero() {
		return nil, fault.ErrUnauthorized
	}
	s := store.NewSession(owner)
	s.View.Stale = true

	if err := v.reconcile(ctx, s); err != nil {
		v.logger.Warn(vaultModule, "Initial reconciliation failed", map[string]interface{}{
			"session_id": s.ID,
			"owner":      owner.String(),
			"error":      err.Error(),
		})
	}

	v.logger.Info(vaultModule, "Session opened", map[string]interface{}{
		"session_id": s.ID,
		"owner":      owner.String(),
	})
	return s, nil
}

func (v *vaultService) Refresh(ctx context.Context, s *store.Session) (*entity.LocalView, error) {
	s.Lock()
	if err := busy(s); err != nil {
		s.Unlock()
		return nil, err
	}
	s.Unlock()

	if err := v.reconcile(ctx, s); err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()
	return s.View, nil
}

func (v *vaultService) Create(ctx context.Context, s *store.Session, req *dto.CreateNoteRequest) (*dto.OperationResult, error) {
	s.Lock()
	if err := busy(s); err != nil {
		s.Unlock()
		return nil, err
	}
	if err := validation.Validate(req.Title, req.Content); err != nil {
		s.Unlock()
		v.rejected(s, store.OpCreate, err)
		return nil, err
	}
	addr, err := address.Derive(v.program, s.Owner, req.Title)
	if err != nil {
		s.Unlock()
		return nil, err
	}
	if err := v.guard.AuthorizeCreate(s.Owner, addr, s.View); err != nil {
		s.Unlock()
		v.rejected(s, store.OpCreate, err)
		return nil, err
	}
	resume := s.State
	beginSubmit(s, store.OpCreate, addr)
	s.Unlock()

	_, err = v.gateway.SubmitCreate(ctx, s.Owner, req.Title, req.Content)
	return v.complete(ctx, s, store.OpCreate, addr, store.StateViewing, resume, err)
}

func (v *vaultService) BeginEdit(ctx context.Context, s *store.Session, addr address.Address) error {
	s.Lock()
	defer s.Unlock()

	if err := busy(s); err != nil {
		return err
	}
	if s.State != store.StateViewing {
		return fmt.Errorf("%w: already editing %s", fault.ErrInvalidState, s.Editing)
	}
	note := s.View.Find(addr)
	if err := v.guard.Authorize(s.Owner, note); err != nil {
		return err
	}

	s.State = store.StateEditing
	s.Editing = addr
	s.HasEditing = true
	s.Buffer = note.Content

	v.logger.Debug(vaultModule, "Editing started", map[string]interface{}{
		"session_id": s.ID,
		"address":    addr.String(),
	})
	return nil
}

func (v *vaultService) SetBuffer(ctx context.Context, s *store.Session, content string) error {
	s.Lock()
	defer s.Unlock()

	if err := editing(s); err != nil {
		return err
	}
	s.Buffer = content
	return nil
}

func (v *vaultService) CancelEdit(ctx context.Context, s *store.Session) error {
	s.Lock()
	defer s.Unlock()

	if err := editing(s); err != nil {
		return err
	}
	v.logger.Debug(vaultModule, "Editing cancelled", map[string]interface{}{
		"session_id": s.ID,
		"address":    s.Editing.String(),
	})
	s.ResetEdit()
	return nil
}

// Save submits the edit buffer. A buffer that fails validation keeps the
// session in Editing so it can be corrected; every other outcome ends in
// Viewing.
func (v *vaultService) Save(ctx context.Context, s *store.Session) (*dto.OperationResult, error) {
	s.Lock()
	if err := editing(s); err != nil {
		s.Unlock()
		return nil, err
	}
	if err := validation.ValidateContent(s.Buffer); err != nil {
		s.Unlock()
		v.rejected(s, store.OpUpdate, err)
		return nil, err
	}
	addr := s.Editing
	if err := v.guard.Authorize(s.Owner, s.View.Find(addr)); err != nil {
		s.ResetEdit()
		s.Unlock()
		v.rejected(s, store.OpUpdate, err)
		return nil, err
	}
	content := s.Buffer
	beginSubmit(s, store.OpUpdate, addr)
	s.Unlock()

	err := v.gateway.SubmitUpdate(ctx, addr, s.Owner, content)
	return v.complete(ctx, s, store.OpUpdate, addr, store.StateViewing, store.StateViewing, err)
}

// Delete removes a note. Deleting the note that is open for editing discards
// the edit once the ledger confirms. A failed submission always lands in
// Viewing.
func (v *vaultService) Delete(ctx context.Context, s *store.Session, addr address.Address) (*dto.OperationResult, error) {
	s.Lock()
	if err := busy(s); err != nil {
		s.Unlock()
		return nil, err
	}
	if err := v.guard.Authorize(s.Owner, s.View.Find(addr)); err != nil {
		s.Unlock()
		v.rejected(s, store.OpDelete, err)
		return nil, err
	}
	onSuccess := s.State
	if s.HasEditing && s.Editing == addr {
		onSuccess = store.StateViewing
	}
	beginSubmit(s, store.OpDelete, addr)
	s.Unlock()

	err := v.gateway.SubmitDelete(ctx, addr, s.Owner)
	return v.complete(ctx, s, store.OpDelete, addr, store.StateViewing, onSuccess, err)
}

func (v *vaultService) View(s *store.Session) *dto.SessionResponse {
	return toSessionResponse(s.Snapshot())
}

// complete settles a submitted mutation: on success it rebuilds the Local
// View before leaving Submitting, so the session never shows a confirmed
// mutation against an unreconciled view.
func (v *vaultService) complete(ctx context.Context, s *store.Session, op store.Operation, addr address.Address, onFailure, onSuccess store.State, submitErr error) (*dto.OperationResult, error) {
	if submitErr != nil {
		s.Lock()
		endSubmit(s, onFailure)
		s.Unlock()

		details := map[string]interface{}{
			"session_id": s.ID,
			"operation":  op,
			"address":    addr.String(),
			"remote":     !fault.IsLocal(submitErr),
			"error":      submitErr.Error(),
		}
		if fault.IsValidation(submitErr) {
			v.logger.Info(vaultModule, "Operation rejected by ledger", details)
		} else {
			v.logger.Warn(vaultModule, "Operation failed", details)
		}
		v.publish(ctx, s, events.OperationFailed, op, addr, submitErr)
		return nil, submitErr
	}

	v.logger.Info(vaultModule, "Operation committed", map[string]interface{}{
		"session_id": s.ID,
		"operation":  op,
		"address":    addr.String(),
	})
	v.publish(ctx, s, successEvent(op), op, addr, nil)

	// the commitment stands whatever happens to the caller now
	refreshErr := v.reconcile(context.WithoutCancel(ctx), s)

	s.Lock()
	endSubmit(s, onSuccess)
	s.Unlock()

	return &dto.OperationResult{
		Operation: string(op),
		Address:   addr.String(),
		Refreshed: refreshErr == nil,
	}, nil
}

// reconcile replaces the Local View with a full query of the owner's notes.
// On failure the previous notes are kept and flagged stale.
func (v *vaultService) reconcile(ctx context.Context, s *store.Session) error {
	s.Lock()
	seq := s.BeginReconcile()
	s.Unlock()

	notes, err := v.gateway.QueryByOwner(ctx, s.Owner)

	s.Lock()
	if err != nil {
		s.MarkStale(seq)
		s.Unlock()
		v.logger.Warn(vaultModule, "Reconciliation failed, view is stale", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		v.publish(ctx, s, events.ViewStale, store.OpNone, address.Address{}, err)
		return err
	}
	s.ApplyView(seq, entity.NewLocalView(s.Owner, notes, v.clock()))
	s.Unlock()

	v.logger.Debug(vaultModule, "View reconciled", map[string]interface{}{
		"session_id": s.ID,
		"notes":      len(notes),
	})
	v.publishCount(ctx, s, len(notes))
	return nil
}

func (v *vaultService) rejected(s *store.Session, op store.Operation, err error) {
	v.logger.Info(vaultModule, "Operation rejected locally", map[string]interface{}{
		"session_id": s.ID,
		"operation":  op,
		"error":      err.Error(),
	})
}

func (v *vaultService) publishCount(ctx context.Context, s *store.Session, count int) {
	evt := dto.VaultEvent{
		Type:       events.ViewRefreshed,
		SessionId:  s.ID,
		Owner:      s.Owner.String(),
		NoteCount:  count,
		OccurredAt: v.clock(),
	}
	v.dispatch(ctx, evt)
}

func (v *vaultService) publish(ctx context.Context, s *store.Session, eventType string, op store.Operation, addr address.Address, cause error) {
	evt := dto.VaultEvent{
		Type:       eventType,
		SessionId:  s.ID,
		Owner:      s.Owner.String(),
		Operation:  string(op),
		OccurredAt: v.clock(),
	}
	if !addr.IsZero() {
		evt.Address = addr.String()
	}
	if cause != nil {
		evt.Error = cause.Error()
	}
	v.dispatch(ctx, evt)
}

// dispatch fans an event out to the websocket topic and, when connected, to
// NATS. Delivery failures are logged and never fail the operation.
func (v *vaultService) dispatch(ctx context.Context, evt dto.VaultEvent) {
	ctx = context.WithoutCancel(ctx)

	if v.publisherService != nil {
		payload, err := json.Marshal(evt)
		if err == nil {
			err = v.publisherService.Publish(ctx, payload)
		}
		if err != nil {
			v.logger.Warn(vaultModule, "Failed to publish vault event", map[string]interface{}{
				"type":  evt.Type,
				"error": err.Error(),
			})
		}
	}

	if v.eventPublisher != nil {
		mirrored := events.BaseEvent{
			Type: evt.Type,
			Data: map[string]interface{}{
				"session_id": evt.SessionId,
				"owner":      evt.Owner,
				"operation":  evt.Operation,
				"address":    evt.Address,
				"error":      evt.Error,
				"note_count": evt.NoteCount,
			},
			OccurredAt: evt.OccurredAt,
		}
		if err := v.eventPublisher.Publish(ctx, mirrored); err != nil {
			v.logger.Warn(vaultModule, "Failed to mirror vault event to NATS", map[string]interface{}{
				"type":  evt.Type,
				"error": err.Error(),
			})
		}
	}
}

func successEvent(op store.Operation) string {
	switch op {
	case store.OpCreate:
		return events.NoteCreated
	case store.OpUpdate:
		return events.NoteUpdated
	default:
		return events.NoteDeleted
	}
}

func busy(s *store.Session) error {
	if s.State == store.StateSubmitting {
		return fmt.Errorf("%w: %s of %s pending", fault.ErrBusy, s.Pending, s.PendingTarget)
	}
	return nil
}

func editing(s *store.Session) error {
	if err := busy(s); err != nil {
		return err
	}
	if s.State != store.StateEditing {
		return fmt.Errorf("%w: no note is open for editing", fault.ErrInvalidState)
	}
	return nil
}

func beginSubmit(s *store.Session, op store.Operation, target address.Address) {
	s.State = store.StateSubmitting
	s.Pending = op
	s.PendingTarget = target
}

func endSubmit(s *store.Session, resume store.State) {
	s.Pending = store.OpNone
	s.PendingTarget = address.Address{}
	if resume == store.StateEditing && s.HasEditing {
		s.State = store.StateEditing
		return
	}
	s.ResetEdit()
}

func toSessionResponse(snap store.Snapshot) *dto.SessionResponse {
	res := &dto.SessionResponse{
		SessionId: snap.ID,
		Owner:     snap.Owner.String(),
		State:     string(snap.State),
		Buffer:    snap.Buffer,
		Pending:   string(snap.Pending),
		Notes:     make([]*dto.NoteResponse, 0, snap.View.Len()),
	}
	if snap.Editing != nil {
		editing := snap.Editing.String()
		res.Editing = &editing
	}
	if snap.PendingTarget != nil {
		target := snap.PendingTarget.String()
		res.PendingTarget = &target
	}
	if snap.View != nil {
		res.Stale = snap.View.Stale
		if !snap.View.ReconciledAt.IsZero() {
			at := snap.View.ReconciledAt
			res.ReconciledAt = &at
		}
		for _, n := range snap.View.Notes {
			res.Notes = append(res.Notes, toNoteResponse(n))
		}
	}
	return res
}

func toNoteResponse(n *entity.Note) *dto.NoteResponse {
	return &dto.NoteResponse{
		Address:   n.Address.String(),
		Owner:     n.Owner.String(),
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
