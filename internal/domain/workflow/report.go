package workflow

import (
	"fmt"
	"strings"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

// ReportDraft is the report text written at completion
type ReportDraft struct {
	Internal string
	External string
}

// ComposeReport builds both reports from the recorded stage fields.
// Text supplied in the completion payload wins over the template.
func ComposeReport(c *entity.Case, p CompleteAndReportPayload, institutionName string) ReportDraft {
	draft := ReportDraft{
		Internal: p.InternalReport,
		External: p.ExternalReport,
	}
	if blank(draft.Internal) {
		draft.Internal = internalReport(c, institutionName)
	}
	if blank(draft.External) {
		draft.External = ExternalReportTemplate(c)
	}
	return draft
}

func internalReport(c *entity.Case, institutionName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DMM CASE REPORT %s\n", c.CaseNumber)
	fmt.Fprintf(&b, "Title: %s\n", c.Title)
	fmt.Fprintf(&b, "Platform: %s | Priority: %s | Scope: %s\n", c.Platform, c.Priority, c.GeographicScope)
	if institutionName != "" {
		fmt.Fprintf(&b, "Target institution: %s\n", institutionName)
	}
	b.WriteString("\n")

	section(&b, "Intake assessment", c.IDPAssessment)
	section(&b, "Institution response", c.InstitutionResponse)
	section(&b, "Corrective information", c.CorrectiveInfo)
	section(&b, "Expert evaluation", c.ExpertEvaluation)

	decision := "not recorded"
	if c.LegalApproved != nil {
		decision = "rejected"
		if *c.LegalApproved {
			decision = "approved"
		}
	}
	section(&b, "Legal assessment ("+decision+")", c.LegalAssessment)
	section(&b, "Legal notes", c.LegalNotes)
	section(&b, "Final control", c.FinalNotes)
	section(&b, "Recommendation", c.FinalRecommendation)

	return strings.TrimRight(b.String(), "\n")
}

func section(b *strings.Builder, title, body string) {
	if blank(body) {
		return
	}
	fmt.Fprintf(b, "%s:\n%s\n\n", title, strings.TrimSpace(body))
}

// ExternalReportTemplate is the public correction notice used when no one
// supplies or drafts one.
func ExternalReportTemplate(c *entity.Case) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Regarding the claim \"%s\" circulating on %s: ", c.Title, c.Platform)
	if !blank(c.CorrectiveInfo) {
		b.WriteString(strings.TrimSpace(c.CorrectiveInfo))
	} else {
		b.WriteString("the content was reviewed and found to be misleading.")
	}
	fmt.Fprintf(&b, " (Ref: %s)", c.CaseNumber)
	return b.String()
}
