// Package rules turns a subscription snapshot into candidate notifications.
//
// Each rule is a pure evaluator over the same Input. Candidate IDs are derived
// from the rule, its subject and its parameter so that re-evaluating the same
// logical event yields the same ID and the scheduler can drop it as a duplicate.
package rules

import (
	"time"

	"github.com/samber/lo"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

// Rule names used by the default registry.
const (
	NameUpcomingPayment    = "upcoming_payment"
	NameBudgetAlert        = "budget_alert"
	NameUnusedSubscription = "unused_subscription"
	NameWeeklyDigest       = "weekly_digest"
	NameSuggestion         = "suggestion"
)

// Input is the read-only snapshot every rule evaluates.
type Input struct {
	Subscriptions []models.Subscription
	State         models.BudgetState
	Settings      models.NotificationSettings
	Now           time.Time
	// Currency is the code amounts are expressed in. Empty means models.DefaultCurrency.
	Currency string
}

// Evaluator produces candidate notifications for an input.
type Evaluator func(in Input) []models.SmartNotification

type entry struct {
	name string
	eval Evaluator
}

// Registry is an ordered set of named evaluators.
type Registry struct {
	entries []entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default returns a registry with the built-in rules in their delivery order.
func Default() *Registry {
	r := NewRegistry()
	r.Register(NameUpcomingPayment, UpcomingPayment)
	r.Register(NameBudgetAlert, BudgetAlert)
	r.Register(NameUnusedSubscription, UnusedSubscription)
	r.Register(NameWeeklyDigest, WeeklyDigest)
	r.Register(NameSuggestion, Suggestion)
	return r
}

// Register adds eval under name. Registering an existing name replaces it in place.
func (r *Registry) Register(name string, eval Evaluator) {
	for i := range r.entries {
		if r.entries[i].name == name {
			r.entries[i].eval = eval
			return
		}
	}
	r.entries = append(r.entries, entry{name: name, eval: eval})
}

// Names returns the registered rule names in evaluation order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// RuleResult is the output of a single rule.
type RuleResult struct {
	Rule       string
	Candidates []models.SmartNotification
}

// EvaluateByRule runs every rule in registration order.
func (r *Registry) EvaluateByRule(in Input) []RuleResult {
	out := make([]RuleResult, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, RuleResult{Rule: e.name, Candidates: e.eval(in)})
	}
	return out
}

// Flatten concatenates the candidates of results, keeping rule order.
func Flatten(results []RuleResult) []models.SmartNotification {
	return lo.FlatMap(results, func(r RuleResult, _ int) []models.SmartNotification {
		return r.Candidates
	})
}

func activeSubscriptions(subs []models.Subscription) []models.Subscription {
	return lo.Filter(subs, func(s models.Subscription, _ int) bool {
		return s.IsActive()
	})
}
