package workflow

import (
	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/dmm-case-workflow/internal/domain/workflow"
)

// BuildCaseCatalog creates the transition catalog of the case review pipeline
func BuildCaseCatalog() *domainwf.Catalog {
	builder := domainwf.NewBuilder()

	// IDP_FORM: admin picks the institution that must answer
	builder.Configure(entity.StatusIDPForm).
		Permit(domainwf.ActionRouteToInstitution, entity.StatusAwaitingInstitution, entity.RoleAdmin,
			domainwf.WithGuard(domainwf.RequireTargetInstitution),
			domainwf.WithEffect(domainwf.SetTargetInstitution))

	// KURUM_BEKLENIYOR: only the targeted institution may respond
	builder.Configure(entity.StatusAwaitingInstitution).
		Permit(domainwf.ActionInstitutionRespond, entity.StatusExpertReview, entity.RoleInstitutionUser,
			domainwf.WithInstitutionScope(),
			domainwf.WithGuard(domainwf.RequireInstitutionResponse),
			domainwf.WithEffect(domainwf.StoreInstitutionResponse))

	builder.Configure(entity.StatusExpertReview).
		Permit(domainwf.ActionAddExpertEvaluation, entity.StatusAwaitingLegalRouting, entity.RoleIDPPersonnel,
			domainwf.WithGuard(domainwf.RequireExpertEvaluation),
			domainwf.WithEffect(domainwf.StoreExpertEvaluation))

	builder.Configure(entity.StatusAwaitingLegalRouting).
		Permit(domainwf.ActionRouteToLegal, entity.StatusLegalReview, entity.RoleAdmin)

	// HUKUK_INCELEMESI: a rejection is a decision and still moves forward
	builder.Configure(entity.StatusLegalReview).
		Permit(domainwf.ActionLegalReview, entity.StatusFinalControl, entity.RoleLegalPersonnel,
			domainwf.WithGuard(domainwf.RequireLegalDecision),
			domainwf.WithEffect(domainwf.StoreLegalDecision))

	builder.Configure(entity.StatusFinalControl).
		Permit(domainwf.ActionAddFinalControl, entity.StatusAwaitingCompletion, entity.RoleIDPPersonnel,
			domainwf.WithGuard(domainwf.RequireFinalNotes),
			domainwf.WithEffect(domainwf.StoreFinalControl))

	builder.Configure(entity.StatusAwaitingCompletion).
		Permit(domainwf.ActionCompleteAndReport, entity.StatusCompleted, entity.RoleAdmin,
			domainwf.WithReport(),
			domainwf.WithEffect(domainwf.StoreReport))

	// TAMAMLANDI is terminal - no outgoing transitions

	return builder.Build()
}
