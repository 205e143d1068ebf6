package workflow

import (
	"fmt"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

// Authorize decides whether actor may invoke transition on c.
// It checks role and ownership only; status legality belongs to the catalog.
func Authorize(actor Actor, t Transition, c *entity.Case) error {
	if actor.Role != t.Role {
		return Forbidden(fmt.Sprintf("action %s requires role %s", t.Action, t.Role))
	}

	if t.institutionScoped {
		if c.TargetInstitutionID == nil {
			return Forbidden("case is not routed to any institution")
		}
		if !actor.BelongsTo(*c.TargetInstitutionID) {
			return Forbidden("case is routed to a different institution")
		}
	}

	return nil
}
