package workflow

import (
	"fmt"

	"github.com/garyjia/dmm-case-workflow/internal/domain/entity"
)

// CatalogBuilder builds the transition catalog
type CatalogBuilder interface {
	// Configure returns a state configuration for the given status
	Configure(from entity.Status) StateConfiguration

	// Build returns an immutable catalog of everything configured so far
	Build() *Catalog
}

// StateConfiguration configures the actions offered from a specific status
type StateConfiguration interface {
	// Permit allows role to move a case from the configured status to `to`
	// by invoking action
	Permit(action Action, to entity.Status, role entity.Role, opts ...TransitionOption) StateConfiguration
}

// TransitionOption customizes a transition at build time
type TransitionOption func(*Transition)

// WithGuard attaches a guard predicate
func WithGuard(g GuardFunc) TransitionOption {
	return func(t *Transition) { t.guard = g }
}

// WithEffect attaches the field writes of the transition
func WithEffect(e EffectFunc) TransitionOption {
	return func(t *Transition) { t.effect = e }
}

// WithInstitutionScope requires the actor to belong to the case's target institution
func WithInstitutionScope() TransitionOption {
	return func(t *Transition) { t.institutionScoped = true }
}

// WithReport asks the engine to draft report text before applying the effect
func WithReport() TransitionOption {
	return func(t *Transition) { t.needsReport = true }
}

type stateConfig struct {
	builder *catalogBuilder
	from    entity.Status
}

type catalogBuilder struct {
	transitions map[transitionKey]Transition
	order       []transitionKey
}

// NewBuilder creates a new catalog builder
func NewBuilder() CatalogBuilder {
	return &catalogBuilder{
		transitions: make(map[transitionKey]Transition),
	}
}

// Configure returns a state configuration for the given status
func (b *catalogBuilder) Configure(from entity.Status) StateConfiguration {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", from))
	}
	if from.IsTerminal() {
		panic(fmt.Sprintf("terminal status %s cannot have outgoing transitions", from))
	}
	return &stateConfig{builder: b, from: from}
}

// Build creates the catalog
func (b *catalogBuilder) Build() *Catalog {
	// Copy so later Permit calls on the builder cannot leak into the catalog
	transitions := make(map[transitionKey]Transition, len(b.transitions))
	for k, t := range b.transitions {
		transitions[k] = t
	}

	return &Catalog{
		transitions: transitions,
		order:       append([]transitionKey(nil), b.order...),
	}
}

// Permit registers one catalog row
func (c *stateConfig) Permit(action Action, to entity.Status, role entity.Role, opts ...TransitionOption) StateConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", to))
	}
	if !role.IsValid() {
		panic(fmt.Sprintf("invalid role: %s", role))
	}

	key := transitionKey{from: c.from, action: action}
	if _, exists := c.builder.transitions[key]; exists {
		panic(fmt.Sprintf("duplicate transition: %s from %s", action, c.from))
	}

	t := Transition{
		From:   c.from,
		Action: action,
		To:     to,
		Role:   role,
	}
	for _, opt := range opts {
		opt(&t)
	}

	c.builder.transitions[key] = t
	c.builder.order = append(c.builder.order, key)
	return c
}
