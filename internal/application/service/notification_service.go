package service

import (
	"context"
	"fmt"

	"github.com/garyjia/dmm-case-workflow/internal/application/dispatcher"
	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	"github.com/garyjia/dmm-case-workflow/internal/domain/event"
)

// NotificationService tells institutions when a case is waiting for them
type NotificationService interface {
	// Register subscribes the service to status-changed events
	Register(d dispatcher.Dispatcher)

	// NotifyInstitution messages the target institution of a case
	NotifyInstitution(ctx context.Context, caseID int64) error
}

type notificationServiceImpl struct {
	caseRepo        port.CaseRepository
	institutionRepo port.InstitutionRepository
	messageSender   port.LarkMessageSender
	logger          Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	caseRepo port.CaseRepository,
	institutionRepo port.InstitutionRepository,
	messageSender port.LarkMessageSender,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		caseRepo:        caseRepo,
		institutionRepo: institutionRepo,
		messageSender:   messageSender,
		logger:          logger,
	}
}

// Register subscribes the service to status-changed events
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeCaseStatusChanged, "institution-notifier", s.handleStatusChanged)
}

func (s *notificationServiceImpl) handleStatusChanged(ctx context.Context, evt *event.Event) error {
	if evt.GetPayloadString(event.KeyNewStatus) != entity.StatusAwaitingInstitution.String() {
		return nil
	}
	return s.NotifyInstitution(ctx, evt.CaseID)
}

// NotifyInstitution messages the target institution of a case
func (s *notificationServiceImpl) NotifyInstitution(ctx context.Context, caseID int64) error {
	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		s.logger.Error("Failed to get case", "error", err, "case_id", caseID)
		return fmt.Errorf("get case: %w", err)
	}
	if c == nil || c.TargetInstitutionID == nil {
		return fmt.Errorf("case %d has no target institution", caseID)
	}

	inst, err := s.institutionRepo.GetByID(ctx, *c.TargetInstitutionID)
	if err != nil {
		s.logger.Error("Failed to get institution", "error", err, "institution_id", *c.TargetInstitutionID)
		return fmt.Errorf("get institution: %w", err)
	}
	if inst == nil {
		return fmt.Errorf("institution %d not found", *c.TargetInstitutionID)
	}
	if inst.LarkOpenID == "" {
		s.logger.Info("Institution has no Lark recipient, skipping notification",
			"case_id", caseID,
			"institution_id", inst.ID,
		)
		return nil
	}

	message := buildInstitutionMessage(c, inst)
	if err := s.messageSender.SendTextMessage(ctx, inst.LarkOpenID, message); err != nil {
		s.logger.Error("Failed to send message", "error", err, "case_id", caseID, "open_id", inst.LarkOpenID)
		return fmt.Errorf("send message: %w", err)
	}

	s.logger.Info("Institution notified",
		"case_id", caseID,
		"case_number", c.CaseNumber,
		"institution_id", inst.ID,
	)
	return nil
}

func buildInstitutionMessage(c *entity.Case, inst *entity.Institution) string {
	return fmt.Sprintf(
		"A disinformation case is waiting for your response.\n\nInstitution: %s\nCase: %s\nTitle: %s\nPlatform: %s\nPriority: %s\n\nPlease review the case and submit your response.",
		inst.Name,
		c.CaseNumber,
		c.Title,
		c.Platform,
		c.Priority,
	)
}
