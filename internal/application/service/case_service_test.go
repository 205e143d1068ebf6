package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/dmm-case-workflow/internal/application/port"
	"github.com/garyjia/dmm-case-workflow/internal/application/workflow"
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
	"github.com/garyjia/dmm-case-workflow/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

func int64Ptr(v int64) *int64 { return &v }

var (
	adminActor       = domainwf.Actor{UserID: 1, Role: entity.RoleAdmin}
	idpActor         = domainwf.Actor{UserID: 2, Role: entity.RoleIDPPersonnel}
	legalActor       = domainwf.Actor{UserID: 3, Role: entity.RoleLegalPersonnel}
	institutionActor = domainwf.Actor{UserID: 4, Role: entity.RoleInstitutionUser, InstitutionID: int64Ptr(1)}
	outsiderActor    = domainwf.Actor{UserID: 5, Role: entity.RoleInstitutionUser, InstitutionID: int64Ptr(2)}
)

func newCaseService(t *testing.T) (*memory.Store, *caseServiceImpl) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Institutions().Create(ctx, &entity.Institution{Code: "MOH", Name: "Ministry of Health", Active: true}))
	require.NoError(t, store.Institutions().Create(ctx, &entity.Institution{Code: "AFAD", Name: "Disaster Agency", Active: true}))

	engine := workflow.NewEngine(workflow.BuildCaseCatalog(), store.Cases(), store.History(), store.Institutions(), store)
	svc := NewCaseService(store.Cases(), store.History(), store.Institutions(), store, engine, nil, &mockLogger{}).(*caseServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return store, svc
}

func validInput() CreateCaseInput {
	return CreateCaseInput{
		Title:       "  Fake vaccine recall  ",
		Description: "Screenshot of a recall notice",
		Platform:    "twitter",
		Priority:    entity.PriorityHigh,
		SourceURL:   "https://twitter.com/example/status/1",
		Tags:        []string{"health", " ", "vaccine"},
	}
}

func TestCaseService_CreateCase(t *testing.T) {
	store, svc := newCaseService(t)

	view, err := svc.CreateCase(context.Background(), idpActor, validInput())
	require.NoError(t, err)

	c := view.Case
	assert.Equal(t, entity.StatusIDPForm, c.Status)
	assert.Equal(t, "Fake vaccine recall", c.Title)
	assert.Equal(t, entity.PlatformTwitter, c.Platform)
	assert.Equal(t, entity.ScopeNational, c.GeographicScope)
	assert.Equal(t, entity.SourceSocialMedia, c.SourceType)
	assert.Equal(t, []string{"health", "vaccine"}, c.Tags)
	assert.Regexp(t, `^DMM-20240301-\d{3}$`, c.CaseNumber)
	assert.Empty(t, view.AvailableActions)

	entries, err := store.History().ListByCaseID(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "create_case", entries[0].Action)
	assert.Equal(t, entity.StatusIDPForm, entries[0].OldStatus)
	assert.Equal(t, entity.StatusIDPForm, entries[0].NewStatus)
}

func TestCaseService_CreateCaseRejections(t *testing.T) {
	tests := []struct {
		name      string
		actor     domainwf.Actor
		mutate    func(in *CreateCaseInput)
		wantErr   error
		wantField string
	}{
		{"legal cannot create", legalActor, nil, domainwf.ErrForbidden, ""},
		{"institution cannot create", institutionActor, nil, domainwf.ErrForbidden, ""},
		{"missing title", adminActor, func(in *CreateCaseInput) { in.Title = " " }, domainwf.ErrInvalidPayload, "title"},
		{"unknown platform", adminActor, func(in *CreateCaseInput) { in.Platform = "MYSPACE" }, domainwf.ErrInvalidPayload, "platform"},
		{"bad url", adminActor, func(in *CreateCaseInput) { in.SourceURL = "ftp://x" }, domainwf.ErrInvalidPayload, "source_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, svc := newCaseService(t)
			input := validInput()
			if tt.mutate != nil {
				tt.mutate(&input)
			}

			_, err := svc.CreateCase(context.Background(), tt.actor, input)
			require.ErrorIs(t, err, tt.wantErr)

			if tt.wantField != "" {
				var wfErr *domainwf.Error
				require.ErrorAs(t, err, &wfErr)
				require.NotEmpty(t, wfErr.Violations)
				assert.Equal(t, tt.wantField, wfErr.Violations[0].Field)
			}
		})
	}
}

func TestCaseService_CreateCaseRetriesDuplicateNumber(t *testing.T) {
	_, svc := newCaseService(t)
	numbers := []string{"DMM-20240301-007", "DMM-20240301-007", "DMM-20240301-008"}
	calls := 0
	svc.caseNumber = func(time.Time) string {
		n := numbers[calls]
		calls++
		return n
	}

	first, err := svc.CreateCase(context.Background(), adminActor, validInput())
	require.NoError(t, err)
	second, err := svc.CreateCase(context.Background(), adminActor, validInput())
	require.NoError(t, err)

	assert.Equal(t, "DMM-20240301-007", first.Case.CaseNumber)
	assert.Equal(t, "DMM-20240301-008", second.Case.CaseNumber)
	assert.Equal(t, 3, calls)
}

func TestCaseService_CreateCaseGivesUpAfterRepeatedDuplicates(t *testing.T) {
	_, svc := newCaseService(t)
	svc.caseNumber = func(time.Time) string { return "DMM-20240301-001" }

	_, err := svc.CreateCase(context.Background(), adminActor, validInput())
	require.NoError(t, err)

	_, err = svc.CreateCase(context.Background(), adminActor, validInput())
	require.Error(t, err)
	assert.Empty(t, domainwf.CodeOf(err))
}

func TestCaseService_CreateCaseRejectsMalformedNumber(t *testing.T) {
	store, svc := newCaseService(t)
	svc.caseNumber = func(time.Time) string { return "CASE-1" }

	_, err := svc.CreateCase(context.Background(), adminActor, validInput())
	require.ErrorContains(t, err, "invalid case number format")

	cases, err := store.Cases().List(context.Background(), port.CaseFilter{})
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func perform(t *testing.T, svc CaseService, actor domainwf.Actor, id int64, action string, payload string) *ActionResult {
	t.Helper()
	res, err := svc.PerformAction(context.Background(), actor, id, action, json.RawMessage(payload), "")
	require.NoError(t, err, action)
	return res
}

func TestCaseService_FullPipeline(t *testing.T) {
	store, svc := newCaseService(t)
	ctx := context.Background()

	view, err := svc.CreateCase(ctx, adminActor, validInput())
	require.NoError(t, err)
	id := view.Case.ID

	res := perform(t, svc, adminActor, id, "route_to_institution", `{"institution_id": 1}`)
	assert.Empty(t, res.AvailableActions)
	perform(t, svc, institutionActor, id, "institution_respond", `{"response": "No recall", "corrective_info": "Batches are approved"}`)
	perform(t, svc, idpActor, id, "add_expert_evaluation", `{"evaluation": "Fabricated"}`)
	perform(t, svc, adminActor, id, "route_to_legal", ``)
	perform(t, svc, legalActor, id, "legal_review", `{"assessment": "Lawful to publish", "approved": true}`)
	perform(t, svc, idpActor, id, "add_final_control", `{"notes": "Consistent", "history_notes": "ready"}`)
	res = perform(t, svc, adminActor, id, "complete_and_report", `{}`)

	assert.Equal(t, entity.StatusCompleted, res.Case.Status)
	assert.Empty(t, res.AvailableActions)

	entries, err := store.History().ListByCaseID(ctx, id)
	require.NoError(t, err)
	require.Len(t, entries, 8)
	assert.Equal(t, "create_case", entries[0].Action)
	assert.Equal(t, "ready", entries[6].Notes)
	assert.Equal(t, entity.StatusCompleted, entries[7].NewStatus)
}

func TestCaseService_PerformActionDecodeErrors(t *testing.T) {
	_, svc := newCaseService(t)
	view, err := svc.CreateCase(context.Background(), adminActor, validInput())
	require.NoError(t, err)

	_, err = svc.PerformAction(context.Background(), adminActor, view.Case.ID, "escalate", nil, "")
	assert.ErrorIs(t, err, domainwf.ErrIllegalAction)

	_, err = svc.PerformAction(context.Background(), adminActor, view.Case.ID, "route_to_institution", json.RawMessage(`{"institution": 1}`), "")
	assert.ErrorIs(t, err, domainwf.ErrInvalidPayload)
}

func TestCaseService_Visibility(t *testing.T) {
	store, svc := newCaseService(t)
	ctx := context.Background()

	seed := func(number string, status entity.Status, target *int64) *entity.Case {
		c := &entity.Case{CaseNumber: number, Title: number, Status: status, TargetInstitutionID: target}
		require.NoError(t, store.Cases().Create(ctx, c))
		return c
	}
	intake := seed("DMM-20240301-001", entity.StatusIDPForm, nil)
	waiting := seed("DMM-20240301-002", entity.StatusAwaitingInstitution, int64Ptr(1))
	legal := seed("DMM-20240301-003", entity.StatusLegalReview, int64Ptr(2))
	done := seed("DMM-20240301-004", entity.StatusCompleted, int64Ptr(1))

	tests := []struct {
		name  string
		actor domainwf.Actor
		want  []int64
	}{
		{"admin sees all", adminActor, []int64{done.ID, legal.ID, waiting.ID, intake.ID}},
		{"idp sees all", idpActor, []int64{done.ID, legal.ID, waiting.ID, intake.ID}},
		{"legal sees legal stage onward", legalActor, []int64{done.ID, legal.ID}},
		{"institution sees its own", institutionActor, []int64{done.ID, waiting.ID}},
		{"institution without id sees nothing", domainwf.Actor{UserID: 9, Role: entity.RoleInstitutionUser}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cases, err := svc.ListCases(ctx, tt.actor, ListOptions{})
			require.NoError(t, err)

			ids := []int64{}
			for _, c := range cases {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	t.Run("status filter", func(t *testing.T) {
		cases, err := svc.ListCases(ctx, legalActor, ListOptions{Status: entity.StatusIDPForm})
		require.NoError(t, err)
		assert.Empty(t, cases)

		cases, err = svc.ListCases(ctx, adminActor, ListOptions{Status: entity.StatusLegalReview})
		require.NoError(t, err)
		require.Len(t, cases, 1)
		assert.Equal(t, legal.ID, cases[0].ID)

		_, err = svc.ListCases(ctx, adminActor, ListOptions{Status: "BOGUS"})
		assert.ErrorIs(t, err, domainwf.ErrInvalidPayload)
	})

	t.Run("hidden case reads as missing", func(t *testing.T) {
		_, err := svc.GetCase(ctx, outsiderActor, waiting.ID)
		assert.ErrorIs(t, err, domainwf.ErrNotFound)

		_, _, err = svc.GetHistory(ctx, legalActor, intake.ID)
		assert.ErrorIs(t, err, domainwf.ErrNotFound)

		view, err := svc.GetCase(ctx, institutionActor, waiting.ID)
		require.NoError(t, err)
		assert.Equal(t, []domainwf.Action{domainwf.ActionInstitutionRespond}, view.AvailableActions)
	})
}

func TestCaseService_ListInstitutions(t *testing.T) {
	store, svc := newCaseService(t)
	require.NoError(t, store.Institutions().Create(context.Background(), &entity.Institution{Code: "OLD", Name: "Dissolved", Active: false}))

	institutions, err := svc.ListInstitutions(context.Background())
	require.NoError(t, err)
	assert.Len(t, institutions, 2)
}

func TestCaseService_ListTransitions(t *testing.T) {
	_, svc := newCaseService(t)

	views := svc.ListTransitions(institutionActor)
	require.Len(t, views, 7)
	assert.Equal(t, entity.StatusIDPForm, views[0].From)
	assert.Equal(t, domainwf.ActionRouteToInstitution, views[0].Action)
	assert.Equal(t, entity.StatusCompleted, views[6].To)

	var mine []domainwf.Action
	for _, v := range views {
		if v.CallerMayInvoke {
			mine = append(mine, v.Action)
			assert.True(t, v.InstitutionScoped)
		}
	}
	assert.Equal(t, []domainwf.Action{domainwf.ActionInstitutionRespond}, mine)
}

func TestCaseService_NotFound(t *testing.T) {
	_, svc := newCaseService(t)
	_, err := svc.GetCase(context.Background(), adminActor, 42)
	if !errors.Is(err, domainwf.ErrNotFound) {
		t.Errorf("GetCase() error = %v, want not found", err)
	}
}
