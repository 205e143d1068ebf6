package workflow

import "github.com/garyjia/dmm-case-workflow/internal/domain/entity"

// Transition is one row of the catalog: from a status, an action invoked by
// a role moves the case to another status.
type Transition struct {
	From   entity.Status
	Action Action
	To     entity.Status
	Role   entity.Role

	guard             GuardFunc
	effect            EffectFunc
	institutionScoped bool
	needsReport       bool
}

// InstitutionScoped reports whether the actor must belong to the target institution
func (t Transition) InstitutionScoped() bool { return t.institutionScoped }

// NeedsReport reports whether report text is drafted for this transition
func (t Transition) NeedsReport() bool { return t.needsReport }

type transitionKey struct {
	from   entity.Status
	action Action
}

// Catalog is the immutable table of legal transitions
type Catalog struct {
	transitions map[transitionKey]Transition
	order       []transitionKey
}

// Lookup returns the transition for the (status, action) pair
func (c *Catalog) Lookup(from entity.Status, action Action) (Transition, error) {
	t, ok := c.transitions[transitionKey{from: from, action: action}]
	if !ok {
		return Transition{}, IllegalAction(from, action)
	}
	return t, nil
}

// AvailableActions lists the actions role may attempt from status,
// in catalog order. Ownership checks are not applied.
func (c *Catalog) AvailableActions(status entity.Status, role entity.Role) []Action {
	actions := []Action{}
	for _, k := range c.order {
		if k.from != status {
			continue
		}
		if c.transitions[k].Role == role {
			actions = append(actions, k.action)
		}
	}
	return actions
}

// Transitions returns every row in the order it was configured
func (c *Catalog) Transitions() []Transition {
	out := make([]Transition, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.transitions[k])
	}
	return out
}
