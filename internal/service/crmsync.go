package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/calldeck/calldeck/internal/domain/caserecord"
	"github.com/calldeck/calldeck/internal/domain/decision"
	"github.com/calldeck/calldeck/internal/domain/signal"
	"github.com/calldeck/calldeck/internal/port/crm"
	"github.com/calldeck/calldeck/internal/port/database"
	"github.com/calldeck/calldeck/internal/port/messagequeue"
)

// CRMSyncService mirrors approved cases into the CRM. It consumes
// cases.approved from the queue, creates a lead for sales-relevant cases and
// a follow-up task for the assigned team.
type CRMSyncService struct {
	connector crm.Connector
	store     database.Store
	queue     messagequeue.Queue

	cancel func()
}

// NewCRMSyncService creates a CRMSyncService.
func NewCRMSyncService(connector crm.Connector, store database.Store, queue messagequeue.Queue) *CRMSyncService {
	return &CRMSyncService{connector: connector, store: store, queue: queue}
}

// Start subscribes to approved-case messages.
func (s *CRMSyncService) Start(ctx context.Context) error {
	cancel, err := s.queue.Subscribe(ctx, messagequeue.SubjectCaseApproved, s.handleApproved)
	if err != nil {
		return fmt.Errorf("crm sync subscribe: %w", err)
	}
	s.cancel = cancel
	slog.Info("crm sync started", "connector", s.connector.Name())
	return nil
}

// Stop cancels the subscription.
func (s *CRMSyncService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *CRMSyncService) handleApproved(ctx context.Context, _ string, data []byte) error {
	var payload messagequeue.CaseResolvedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		// Malformed message; retrying will not help.
		slog.Error("crm sync: malformed payload", "error", err)
		return nil
	}

	rec, err := s.store.GetCase(ctx, payload.CaseID)
	if err != nil {
		return fmt.Errorf("crm sync: load case %s: %w", payload.CaseID, err)
	}
	return s.SyncCase(ctx, rec)
}

// SyncCase pushes one approved case to the CRM. Exposed for the manual
// resync path; the queue handler uses it for every approved case.
func (s *CRMSyncService) SyncCase(ctx context.Context, rec *caserecord.Record) error {
	if rec.ApprovalStatus != caserecord.StatusApproved {
		return fmt.Errorf("crm sync: case %s is %s, not approved", rec.ID, rec.ApprovalStatus)
	}

	d := rec.Decision
	if d.OpportunityLevel == signal.SeverityHigh {
		lead := crm.Lead{
			CaseID:        rec.ID,
			CustomerName:  rec.Bundle.FirstEntity("PERSON"),
			Organization:  rec.Bundle.FirstEntity("ORG"),
			Source:        rec.CallRef,
			Priority:      string(d.PriorityLevel),
			RiskLevel:     string(d.RiskLevel),
			Opportunity:   string(d.OpportunityLevel),
			Summary:       rec.Bundle.Narrative.SummaryShort,
			AssignedTeam:  d.AssignedTeam,
			SentimentNote: rec.Bundle.Sentiment.Compound,
		}
		leadID, err := s.connector.CreateLead(ctx, lead)
		if err != nil && !errors.Is(err, crm.ErrNotConfigured) {
			return fmt.Errorf("crm sync: create lead for case %s: %w", rec.ID, err)
		}
		if leadID != "" {
			slog.Info("crm lead created", "case_id", rec.ID, "lead_id", leadID)
		}
	}

	task := crm.FollowUpTask{
		CaseID:      rec.ID,
		Subject:     fmt.Sprintf("Follow up on call %s", rec.CallRef),
		Description: rec.Bundle.Narrative.SummaryDetailed,
		Priority:    string(d.PriorityLevel),
		AssignedTo:  d.AssignedTeam,
		DueInHours:  dueHours(d.PriorityLevel),
	}
	taskID, err := s.connector.CreateFollowUpTask(ctx, task)
	if err != nil && !errors.Is(err, crm.ErrNotConfigured) {
		return fmt.Errorf("crm sync: create task for case %s: %w", rec.ID, err)
	}
	if taskID != "" {
		slog.Info("crm task created", "case_id", rec.ID, "task_id", taskID)
	}
	return nil
}

// dueHours maps a priority level to the follow-up task due window.
func dueHours(level decision.Priority) int {
	switch level {
	case decision.PriorityUrgent:
		return 4
	case decision.PriorityHigh:
		return 24
	case decision.PriorityMedium:
		return 72
	default:
		return 168
	}
}
