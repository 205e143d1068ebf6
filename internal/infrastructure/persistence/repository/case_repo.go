package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/persistence/sqlite"
	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const caseColumns = `
	id, case_number, title, description, platform, priority, geographic_scope,
	source_type, source_url, tags, status,
	idp_assessment, idp_notes,
	target_institution_id, institution_response, corrective_info,
	institution_responder_id, institution_response_date,
	expert_evaluation,
	legal_assessment, legal_notes, legal_approved, legal_reviewer_id, legal_review_date,
	final_notes, final_recommendation, final_approval, final_reviewer_id, final_review_date,
	internal_report, external_report, report_generated_date,
	created_by_id, version, created_at, updated_at`

// CaseRepository implements port.CaseRepository
type CaseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *sql.DB, logger *zap.Logger) port.CaseRepository {
	return &CaseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new case and sets its ID and version
func (r *CaseRepository) Create(ctx context.Context, c *entity.Case) error {
	tags, err := json.Marshal(nonNilTags(c.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt
	c.Version = 1

	query := `
		INSERT INTO cases (
			case_number, title, description, platform, priority, geographic_scope,
			source_type, source_url, tags, status, idp_assessment, idp_notes,
			created_by_id, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		c.CaseNumber,
		c.Title,
		c.Description,
		c.Platform,
		c.Priority,
		c.GeographicScope,
		c.SourceType,
		c.SourceURL,
		string(tags),
		c.Status,
		c.IDPAssessment,
		c.IDPNotes,
		c.CreatedByID,
		c.Version,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return port.ErrDuplicateCaseNumber
		}
		r.logger.Error("Failed to create case", zap.String("case_number", c.CaseNumber), zap.Error(err))
		return fmt.Errorf("failed to create case: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	c.ID = id
	return nil
}

// GetByID retrieves a case by ID. Returns nil, nil when it does not exist.
func (r *CaseRepository) GetByID(ctx context.Context, id int64) (*entity.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = ?`

	c, err := scanCase(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get case by ID", zap.Int64("case_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

// List returns cases matching filter, newest first
func (r *CaseRepository) List(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error) {
	var (
		where []string
		args  []interface{}
	)

	if len(filter.Statuses) > 0 {
		terms := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			term, termArgs := statusMatch(s)
			terms[i] = term
			args = append(args, termArgs...)
		}
		where = append(where, "("+strings.Join(terms, " OR ")+")")
	}
	if filter.TargetInstitutionID != nil {
		where = append(where, "target_institution_id = ?")
		args = append(args, *filter.TargetInstitutionID)
	}

	query := `SELECT ` + caseColumns + ` FROM cases`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list cases", zap.Error(err))
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	cases := []*entity.Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

// ApplyTransition persists next if the stored row still has the expected
// status and version. A stored legacy token that resolves to expected
// counts as expected.
func (r *CaseRepository) ApplyTransition(ctx context.Context, next *entity.Case, expected entity.Status, expectedVersion int64) error {
	expectedMatch, expectedArgs := statusMatch(expected)
	query := `
		UPDATE cases SET
			status = ?,
			target_institution_id = ?,
			institution_response = ?, corrective_info = ?,
			institution_responder_id = ?, institution_response_date = ?,
			expert_evaluation = ?,
			legal_assessment = ?, legal_notes = ?, legal_approved = ?,
			legal_reviewer_id = ?, legal_review_date = ?,
			final_notes = ?, final_recommendation = ?, final_approval = ?,
			final_reviewer_id = ?, final_review_date = ?,
			internal_report = ?, external_report = ?, report_generated_date = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND ` + expectedMatch + ` AND version = ?
	`

	updatedAt := next.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	args := []interface{}{
		next.Status,
		nullInt64(next.TargetInstitutionID),
		next.InstitutionResponse,
		next.CorrectiveInfo,
		nullInt64(next.InstitutionResponderID),
		nullTime(next.InstitutionResponseDate),
		next.ExpertEvaluation,
		next.LegalAssessment,
		next.LegalNotes,
		nullBool(next.LegalApproved),
		nullInt64(next.LegalReviewerID),
		nullTime(next.LegalReviewDate),
		next.FinalNotes,
		next.FinalRecommendation,
		nullBool(next.FinalApproval),
		nullInt64(next.FinalReviewerID),
		nullTime(next.FinalReviewDate),
		next.InternalReport,
		next.ExternalReport,
		nullTime(next.ReportGeneratedDate),
		updatedAt.UTC(),
		next.ID,
	}
	args = append(args, expectedArgs...)
	args = append(args, expectedVersion)

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to apply transition",
			zap.Int64("case_id", next.ID),
			zap.String("expected_status", expected.String()),
			zap.String("new_status", next.Status.String()),
			zap.Error(err))
		return fmt.Errorf("failed to apply transition: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return port.ErrStaleCase
	}

	next.Version = expectedVersion + 1
	return nil
}

// finalNotesPresent mirrors the strings.TrimSpace check scanCase applies
const finalNotesPresent = "TRIM(final_notes, ' ' || char(9) || char(10) || char(11) || char(12) || char(13)) <> ''"

// statusMatch returns a predicate for rows whose stored token resolves to s
func statusMatch(s entity.Status) (string, []interface{}) {
	terms := []string{"status = ?"}
	args := []interface{}{string(s)}
	for _, lt := range entity.LegacyTokensFor(s) {
		switch {
		case lt.FinalNotes == nil:
			terms = append(terms, "status = ?")
		case *lt.FinalNotes:
			terms = append(terms, "(status = ? AND "+finalNotesPresent+")")
		default:
			terms = append(terms, "(status = ? AND NOT ("+finalNotesPresent+"))")
		}
		args = append(args, lt.Token)
	}
	return "(" + strings.Join(terms, " OR ") + ")", args
}

func scanCase(row scanner) (*entity.Case, error) {
	var (
		c                       entity.Case
		tags                    string
		status                  string
		targetInstitutionID     sql.NullInt64
		institutionResponderID  sql.NullInt64
		institutionResponseDate sql.NullTime
		legalApproved           sql.NullBool
		legalReviewerID         sql.NullInt64
		legalReviewDate         sql.NullTime
		finalApproval           sql.NullBool
		finalReviewerID         sql.NullInt64
		finalReviewDate         sql.NullTime
		reportGeneratedDate     sql.NullTime
	)

	err := row.Scan(
		&c.ID, &c.CaseNumber, &c.Title, &c.Description, &c.Platform, &c.Priority, &c.GeographicScope,
		&c.SourceType, &c.SourceURL, &tags, &status,
		&c.IDPAssessment, &c.IDPNotes,
		&targetInstitutionID, &c.InstitutionResponse, &c.CorrectiveInfo,
		&institutionResponderID, &institutionResponseDate,
		&c.ExpertEvaluation,
		&c.LegalAssessment, &c.LegalNotes, &legalApproved, &legalReviewerID, &legalReviewDate,
		&c.FinalNotes, &c.FinalRecommendation, &finalApproval, &finalReviewerID, &finalReviewDate,
		&c.InternalReport, &c.ExternalReport, &reportGeneratedDate,
		&c.CreatedByID, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status, err = entity.ResolveStatus(status, strings.TrimSpace(c.FinalNotes) != "")
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags of case %d: %w", c.ID, err)
	}

	c.TargetInstitutionID = int64Ptr(targetInstitutionID)
	c.InstitutionResponderID = int64Ptr(institutionResponderID)
	c.InstitutionResponseDate = timePtr(institutionResponseDate)
	c.LegalApproved = boolPtr(legalApproved)
	c.LegalReviewerID = int64Ptr(legalReviewerID)
	c.LegalReviewDate = timePtr(legalReviewDate)
	c.FinalApproval = boolPtr(finalApproval)
	c.FinalReviewerID = int64Ptr(finalReviewerID)
	c.FinalReviewDate = timePtr(finalReviewDate)
	c.ReportGeneratedDate = timePtr(reportGeneratedDate)

	return &c, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Verify interface compliance
var _ port.CaseRepository = (*CaseRepository)(nil)
