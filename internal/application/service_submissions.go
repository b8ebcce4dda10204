package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

func toSubmissionView(sub domain.Submission, includeInternal bool) SubmissionView {
	v := SubmissionView{
		ID:            sub.ID,
		ParticipantID: sub.ParticipantID,
		Type:          sub.Type,
		FileName:      sub.FileName,
		MimeType:      sub.MimeType,
		SizeBytes:     sub.SizeBytes,
		Description:   sub.Description,
		Status:        sub.Status,
		AdminNotes:    sub.AdminNotes,
		ReviewedAt:    sub.ReviewedAt,
		CreatedAt:     sub.CreatedAt,
		UpdatedAt:     sub.UpdatedAt,
	}
	if sub.Type == domain.SubmissionDriveLink || includeInternal {
		v.Payload = sub.Payload
	}
	if includeInternal {
		v.InternalRemarks = sub.InternalRemarks
		v.ReviewedBy = sub.ReviewedBy
	}
	return v
}

// CreateSubmission records the participant's single entry. Checks run in a fixed order:
// gate, deadline, collection mode, participant upload flag, payload shape, then uniqueness.
func (s *Service) CreateSubmission(ctx context.Context, principal Principal, req CreateSubmissionRequest) (SubmissionView, error) {
	if principal.SubjectKind != domain.SubjectParticipant {
		return SubmissionView{}, domain.ErrForbidden
	}
	gate, err := s.SubmissionControl(ctx)
	if err != nil {
		return SubmissionView{}, err
	}
	now := s.nowFn()
	if !gate.Enabled {
		return SubmissionView{}, &domain.GateError{Err: domain.ErrSubmissionClosed, Title: gate.ClosedTitle, Message: gate.ClosedMessage}
	}
	if !gate.Open(now) {
		return SubmissionView{}, &domain.GateError{Err: domain.ErrSubmissionClosed, Title: gate.ClosedTitle, Message: "The submission deadline has passed."}
	}
	if gate.CollectionMode == domain.CollectionExternalForm {
		return SubmissionView{}, &domain.GateError{Err: domain.ErrExternalCollection, ExternalURL: gate.ExternalFormURL}
	}

	participant, err := s.participants.GetByID(ctx, principal.SubjectID)
	if err != nil {
		return SubmissionView{}, err
	}
	if !participant.UploadEnabled {
		return SubmissionView{}, domain.ErrUploadDisabled
	}

	if err := s.validateStruct(req); err != nil {
		return SubmissionView{}, err
	}
	sub := domain.Submission{
		ID:            uuid.New(),
		ParticipantID: participant.ID,
		Description:   strings.TrimSpace(req.Description),
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	switch gate.CollectionMode {
	case domain.CollectionDriveLink:
		link, err := domain.ValidateDriveLink(req.DriveLink)
		if err != nil {
			return SubmissionView{}, err
		}
		sub.Type = domain.SubmissionDriveLink
		sub.Payload = link
	default:
		if err := checkFileUpload(gate, req); err != nil {
			return SubmissionView{}, err
		}
		meta, _ := domain.ParseDataURI(req.FileData)
		sub.Type = domain.SubmissionFile
		sub.Payload = req.FileData
		sub.FileName = strings.TrimSpace(req.FileName)
		sub.MimeType = meta.MimeType
		sub.SizeBytes = meta.SizeBytes
	}

	event, err := newEvent("submission.created", participant.ID.String(), map[string]any{
		"submission_id":  sub.ID,
		"participant_id": participant.ID,
		"type":           sub.Type,
	}, now)
	if err != nil {
		return SubmissionView{}, err
	}
	created, err := s.submissions.CreateWithOutboxTx(ctx, sub, event)
	if err != nil {
		return SubmissionView{}, err
	}
	return toSubmissionView(created, false), nil
}

func checkFileUpload(gate domain.SubmissionControl, req CreateSubmissionRequest) error {
	if strings.TrimSpace(req.FileName) == "" || req.FileData == "" {
		return fmt.Errorf("%w: file_name and file_data are required", domain.ErrInvalidInput)
	}
	if !gate.AllowsFile(req.FileName) {
		return fmt.Errorf("%w: file type is not allowed (allowed: %s)", domain.ErrInvalidInput, strings.Join(gate.AllowedFormats, ", "))
	}
	meta, err := domain.ParseDataURI(req.FileData)
	if err != nil {
		return err
	}
	if limit := gate.MaxFileSizeBytes(); limit > 0 && meta.SizeBytes > limit {
		return fmt.Errorf("%w: file exceeds the %d MB limit", domain.ErrInvalidInput, gate.MaxFileSizeMB)
	}
	return nil
}

func (s *Service) MySubmission(ctx context.Context, principal Principal) (SubmissionView, error) {
	if principal.SubjectKind != domain.SubjectParticipant {
		return SubmissionView{}, domain.ErrForbidden
	}
	sub, err := s.submissions.GetByParticipant(ctx, principal.SubjectID)
	if err != nil {
		return SubmissionView{}, err
	}
	return toSubmissionView(sub, false), nil
}

func (s *Service) GetSubmission(ctx context.Context, id uuid.UUID) (SubmissionView, error) {
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return SubmissionView{}, err
	}
	return toSubmissionView(sub, true), nil
}

func (s *Service) ListSubmissions(ctx context.Context, q SubmissionListQuery) (ListResult[SubmissionView], error) {
	filter := ports.SubmissionFilter{}
	if q.Status != "" {
		status, err := domain.ParseSubmissionStatus(q.Status)
		if err != nil {
			return ListResult[SubmissionView]{}, err
		}
		filter.Status = status
	}
	switch t := domain.SubmissionType(strings.TrimSpace(q.Type)); t {
	case "":
	case domain.SubmissionFile, domain.SubmissionDriveLink:
		filter.Type = t
	default:
		return ListResult[SubmissionView]{}, fmt.Errorf("%w: type must be file or drive_link", domain.ErrInvalidInput)
	}
	page, limit, offset := pageBounds(q.Page, q.Limit)
	filter.Limit, filter.Offset = limit, offset

	items, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return ListResult[SubmissionView]{}, err
	}
	views := make([]SubmissionView, 0, len(items))
	for _, sub := range items {
		views = append(views, toSubmissionView(sub, true))
	}
	return ListResult[SubmissionView]{Items: views, Total: total, Page: page, Limit: limit}, nil
}

// UpdateSubmission sets status and notes. Concurrent reviews are last-write-wins; the
// configured transition policy decides which status moves are legal.
func (s *Service) UpdateSubmission(ctx context.Context, actorID, id uuid.UUID, req UpdateSubmissionRequest) (SubmissionView, error) {
	if err := s.validateStruct(req); err != nil {
		return SubmissionView{}, err
	}
	var next *domain.SubmissionStatus
	if req.Status != nil {
		status, err := domain.ParseSubmissionStatus(*req.Status)
		if err != nil {
			return SubmissionView{}, err
		}
		next = &status
	}
	now := s.nowFn()
	policy := s.cfg.TransitionPolicy

	updated, err := s.submissions.Review(ctx, id, func(current *domain.Submission) (*ports.OutboxEvent, error) {
		previous := current.Status
		if next != nil {
			if !policy.CanTransition(previous, *next) {
				return nil, fmt.Errorf("%w: %s -> %s under %s policy", domain.ErrInvalidTransition, previous, *next, policy)
			}
			current.Status = *next
		}
		if req.AdminNotes != nil {
			current.AdminNotes = strings.TrimSpace(*req.AdminNotes)
		}
		if req.InternalRemarks != nil {
			current.InternalRemarks = strings.TrimSpace(*req.InternalRemarks)
		}
		reviewer := actorID
		current.ReviewedBy = &reviewer
		current.ReviewedAt = &now
		current.UpdatedAt = now

		if current.Status == previous {
			return nil, nil
		}
		event, err := newEvent("submission.status_changed", current.ParticipantID.String(), map[string]any{
			"submission_id":  current.ID,
			"participant_id": current.ParticipantID,
			"from":           previous,
			"to":             current.Status,
			"reviewed_by":    actorID,
		}, now)
		if err != nil {
			return nil, err
		}
		return &event, nil
	})
	if err != nil {
		return SubmissionView{}, err
	}
	return toSubmissionView(updated, true), nil
}
