package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/calldeck/calldeck/internal/domain"
	"github.com/calldeck/calldeck/internal/domain/caserecord"
	"github.com/calldeck/calldeck/internal/domain/decision"
)

const defaultListLimit = 100

// caseColumns is the SELECT column list for cases queries.
const caseColumns = `id, call_ref, bundle, decision, approval_status, approval_notes,
	reviewed_by, reviewed_at, version, created_at, updated_at`

// scanCase scans a row into a Record, decoding the JSONB bundle and decision.
func scanCase(row scannable, rec *caserecord.Record) error {
	var bundleRaw, decisionRaw []byte
	var reviewedAt *time.Time
	if err := row.Scan(
		&rec.ID, &rec.CallRef, &bundleRaw, &decisionRaw, &rec.ApprovalStatus,
		&rec.ApprovalNotes, &rec.ReviewedBy, &reviewedAt, &rec.Version,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return err
	}
	rec.ReviewedAt = reviewedAt
	if err := json.Unmarshal(bundleRaw, &rec.Bundle); err != nil {
		return fmt.Errorf("decode bundle: %w", err)
	}
	if err := json.Unmarshal(decisionRaw, &rec.Decision); err != nil {
		return fmt.Errorf("decode decision: %w", err)
	}
	return nil
}

// CreateCase inserts a new case record.
func (s *Store) CreateCase(ctx context.Context, rec *caserecord.Record) error {
	bundleRaw, err := json.Marshal(rec.Bundle)
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	decisionRaw, err := json.Marshal(rec.Decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	const q = `INSERT INTO cases
		(id, call_ref, bundle, decision, approval_status, approval_notes,
		 reviewed_by, reviewed_at, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err = s.pool.Exec(ctx, q,
		rec.ID, rec.CallRef, bundleRaw, decisionRaw, string(rec.ApprovalStatus),
		rec.ApprovalNotes, rec.ReviewedBy, nullTime(timeOrZero(rec.ReviewedAt)),
		rec.Version, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create case %s: %w", rec.ID, err)
	}
	return nil
}

// GetCase retrieves a case with its reminder history.
func (s *Store) GetCase(ctx context.Context, id string) (*caserecord.Record, error) {
	rec := &caserecord.Record{}
	err := scanCase(s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1`, caseColumns), id), rec)
	if err != nil {
		return nil, notFoundWrap(err, "get case %s", id)
	}

	reminders, err := s.loadReminders(ctx, []string{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.Reminders = reminders[rec.ID]
	return rec, nil
}

// ListCases returns cases newest first, optionally filtered by approval status.
func (s *Store) ListCases(ctx context.Context, status caserecord.Status, limit int) ([]caserecord.Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows pgx.Rows
	var err error
	if status == "" {
		rows, err = s.pool.Query(ctx,
			fmt.Sprintf(`SELECT %s FROM cases ORDER BY created_at DESC LIMIT $1`, caseColumns), limit)
	} else {
		rows, err = s.pool.Query(ctx,
			fmt.Sprintf(`SELECT %s FROM cases WHERE approval_status = $1 ORDER BY created_at DESC LIMIT $2`, caseColumns),
			string(status), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	return collectCases(rows)
}

// ListPendingCases returns every case awaiting approval, reminder history
// included, for the scheduler scan. Terminal cases are excluded by the query
// itself, never by post-filtering.
func (s *Store) ListPendingCases(ctx context.Context) ([]caserecord.Record, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM cases WHERE approval_status = $1 ORDER BY created_at ASC`, caseColumns),
		string(caserecord.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("list pending cases: %w", err)
	}
	defer rows.Close()

	result, err := collectCases(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]string, len(result))
	for i := range result {
		ids[i] = result[i].ID
	}
	reminders, err := s.loadReminders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Reminders = reminders[result[i].ID]
	}
	return result, nil
}

// UpdateDecision replaces the stored decision after an explicit engine re-run.
func (s *Store) UpdateDecision(ctx context.Context, id string, d decision.FinalDecision) (*caserecord.Record, error) {
	decisionRaw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode decision: %w", err)
	}

	rec := &caserecord.Record{}
	err = scanCase(s.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE cases SET decision = $2, version = version + 1, updated_at = now()
			WHERE id = $1 RETURNING %s`, caseColumns), id, decisionRaw), rec)
	if err != nil {
		return nil, notFoundWrap(err, "update decision for case %s", id)
	}

	reminders, err := s.loadReminders(ctx, []string{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.Reminders = reminders[rec.ID]
	return rec, nil
}

// TransitionApproval atomically moves a pending case to a terminal status.
// The status guard in the WHERE clause serializes concurrent transitions:
// only the first caller matches a pending row, the second resolves to
// domain.ErrInvalidTransition via the follow-up existence check.
func (s *Store) TransitionApproval(ctx context.Context, id string, to caserecord.Status, tr caserecord.Transition, at time.Time) (*caserecord.Record, error) {
	rec := &caserecord.Record{}
	err := scanCase(s.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE cases
			SET approval_status = $2, approval_notes = $3, reviewed_by = $4,
			    reviewed_at = $5, updated_at = $5, version = version + 1
			WHERE id = $1 AND approval_status = $6
			RETURNING %s`, caseColumns),
		id, string(to), tr.Notes, tr.Actor, at, string(caserecord.StatusPending)), rec)
	if err == nil {
		reminders, lerr := s.loadReminders(ctx, []string{rec.ID})
		if lerr != nil {
			return nil, lerr
		}
		rec.Reminders = reminders[rec.ID]
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition case %s: %w", id, err)
	}

	// No pending row matched: unknown id or already terminal.
	var current string
	err = s.pool.QueryRow(ctx, `SELECT approval_status FROM cases WHERE id = $1`, id).Scan(&current)
	if err != nil {
		return nil, notFoundWrap(err, "transition case %s", id)
	}
	return nil, fmt.Errorf("case %s is %s: %w", id, current, domain.ErrInvalidTransition)
}

// AppendReminder records a successfully delivered reminder.
func (s *Store) AppendReminder(ctx context.Context, caseID string, r caserecord.Reminder) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO case_reminders (case_id, sent_at, kind, recipient) VALUES ($1, $2, $3, $4)`,
		caseID, r.SentAt, string(r.Kind), r.Recipient)
	return execExpectOne(tag, err, "append reminder for case %s", caseID)
}

// DashboardMetrics aggregates case counts for the operational dashboard.
func (s *Store) DashboardMetrics(ctx context.Context) (*caserecord.DashboardMetrics, error) {
	m := &caserecord.DashboardMetrics{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
	}

	rows, err := s.pool.Query(ctx, `SELECT approval_status, COUNT(*) FROM cases GROUP BY approval_status`)
	if err != nil {
		return nil, fmt.Errorf("dashboard metrics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		m.ByStatus[status] = count
		m.TotalCases += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := s.pool.Query(ctx, `SELECT decision->>'priority_level', COUNT(*) FROM cases GROUP BY 1`)
	if err != nil {
		return nil, fmt.Errorf("dashboard metrics: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var level string
		var count int
		if err := prows.Scan(&level, &count); err != nil {
			return nil, err
		}
		m.ByPriority[level] = count
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `SELECT
			COALESCE(AVG((decision->>'priority_score')::int), 0),
			COALESCE(AVG((decision->>'confidence_score')::int), 0),
			COUNT(*) FILTER (WHERE (decision->>'escalation_required')::bool)
		FROM cases`).Scan(&m.AvgPriority, &m.AvgConfidence, &m.Escalations)
	if err != nil {
		return nil, fmt.Errorf("dashboard metrics: %w", err)
	}

	return m, nil
}

// loadReminders returns the reminder history for the given case ids, oldest first.
func (s *Store) loadReminders(ctx context.Context, ids []string) (map[string][]caserecord.Reminder, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT case_id::text, sent_at, kind, recipient
		 FROM case_reminders WHERE case_id::text = ANY($1) ORDER BY sent_at ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]caserecord.Reminder)
	for rows.Next() {
		var caseID string
		var r caserecord.Reminder
		var kind string
		if err := rows.Scan(&caseID, &r.SentAt, &kind, &r.Recipient); err != nil {
			return nil, err
		}
		r.Kind = caserecord.ReminderKind(kind)
		result[caseID] = append(result[caseID], r)
	}
	return result, rows.Err()
}

func collectCases(rows pgx.Rows) ([]caserecord.Record, error) {
	var result []caserecord.Record
	for rows.Next() {
		var rec caserecord.Record
		if err := scanCase(rows, &rec); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
