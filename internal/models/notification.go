package models

import "time"

// NotificationType identifies the rule that produced a notification.
type NotificationType string

// Notification types.
const (
	NotificationUpcomingPayment    NotificationType = "upcoming_payment"
	NotificationBudgetAlert        NotificationType = "budget_alert"
	NotificationUnusedSubscription NotificationType = "unused_subscription"
	NotificationWeeklyDigest       NotificationType = "weekly_digest"
	NotificationSuggestion         NotificationType = "suggestion"
)

// Priority orders notifications within a delivery batch.
type Priority string

// Priorities, lowest first.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank returns a sortable weight for p. Unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Action effects understood by the notification callbacks.
const (
	EffectMarkPaid    = "mark_paid"
	EffectViewDetails = "view_details"
	EffectSnooze      = "snooze"
	EffectDismiss     = "dismiss"
	EffectCancel      = "cancel_subscription"
	EffectOpenBudget  = "open_budget"
)

// NotificationAction is a button offered alongside a notification.
type NotificationAction struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Effect string `json:"effect"`
}

// NotificationStatus is the derived lifecycle state of a notification.
type NotificationStatus string

// Lifecycle states.
const (
	StatusQueued    NotificationStatus = "queued"
	StatusDelivered NotificationStatus = "delivered"
	StatusViewed    NotificationStatus = "viewed"
	StatusDismissed NotificationStatus = "dismissed"
)

// SmartNotification is a single entry of the notification log.
type SmartNotification struct {
	ID           string               `json:"id"`
	Type         NotificationType     `json:"type"`
	Title        string               `json:"title"`
	Message      string               `json:"message"`
	Priority     Priority             `json:"priority"`
	ScheduledFor time.Time            `json:"scheduled_for"`
	Data         map[string]string    `json:"data,omitempty"`
	Actions      []NotificationAction `json:"actions,omitempty"`
	Viewed       bool                 `json:"viewed"`
	Dismissed    bool                 `json:"dismissed"`
	DeliveredAt  *time.Time           `json:"delivered_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Status derives the lifecycle state from the flags.
func (n SmartNotification) Status() NotificationStatus {
	switch {
	case n.Dismissed:
		return StatusDismissed
	case n.Viewed:
		return StatusViewed
	case n.DeliveredAt != nil:
		return StatusDelivered
	default:
		return StatusQueued
	}
}

// RequiresInteraction reports whether the channel should keep the notification
// visible until the user acts on it.
func (n SmartNotification) RequiresInteraction() bool {
	return n.Priority == PriorityUrgent || n.Priority == PriorityHigh
}

// EngineState is the persisted scheduler state.
type EngineState struct {
	LastProcessed time.Time           `json:"last_processed"`
	Log           []SmartNotification `json:"log"`
	DismissedIDs  []string            `json:"dismissed_ids,omitempty"`
	// EmittedIDs remembers every ID ever added to the log, oldest first. It
	// outlives Log, which is trimmed for display.
	EmittedIDs []string `json:"emitted_ids,omitempty"`
}

// Clone returns a deep copy so callers can mutate without aliasing persisted state.
func (s EngineState) Clone() EngineState {
	out := EngineState{LastProcessed: s.LastProcessed}
	if s.Log != nil {
		out.Log = make([]SmartNotification, len(s.Log))
		for i, n := range s.Log {
			out.Log[i] = n.clone()
		}
	}
	if s.DismissedIDs != nil {
		out.DismissedIDs = append([]string(nil), s.DismissedIDs...)
	}
	if s.EmittedIDs != nil {
		out.EmittedIDs = append([]string(nil), s.EmittedIDs...)
	}
	return out
}

func (n SmartNotification) clone() SmartNotification {
	if n.Data != nil {
		data := make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			data[k] = v
		}
		n.Data = data
	}
	if n.Actions != nil {
		n.Actions = append([]NotificationAction(nil), n.Actions...)
	}
	if n.DeliveredAt != nil {
		at := *n.DeliveredAt
		n.DeliveredAt = &at
	}
	return n
}
