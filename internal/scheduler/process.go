// Package scheduler merges candidate notifications into the retained log and
// decides which of them are due for delivery.
//
// Everything here is pure: callers pass the current state in and persist the
// returned state themselves.
package scheduler

import (
	"errors"
	"sort"
	"time"

	"github.com/samber/lo"
	"gitlab.com/yelinaung/subscription-bot/internal/models"
)

const (
	// DefaultCooldown is the minimum time between two evaluation passes.
	DefaultCooldown = time.Hour
	// DefaultLogCap is the number of notifications retained in the log.
	DefaultLogCap = 50
	// MaxDismissedIDs bounds the list of dismissed IDs kept for suppression.
	MaxDismissedIDs = 200
	// MaxEmittedIDs bounds the ledger of emitted IDs used for dedup once an
	// entry has been trimmed from the log.
	MaxEmittedIDs = 1000
)

// ErrNotFound is returned when a notification ID is not in the log.
var ErrNotFound = errors.New("notification not found")

// Input is a single scheduling step.
type Input struct {
	Candidates []models.SmartNotification
	State      models.EngineState
	Now        time.Time
	Cooldown   time.Duration
	LogCap     int
}

// Result is the outcome of a scheduling step.
type Result struct {
	// ToDeliver is ordered by priority, highest first, stable by generation order.
	ToDeliver []models.SmartNotification
	State     models.EngineState
	// Skipped is true when the cooldown gate stopped the step.
	Skipped bool
	// Added holds the candidates that were new to the log, in generation order.
	Added []models.SmartNotification
}

// InCooldown reports whether a pass at now is too close to lastProcessed.
// A zero lastProcessed never blocks.
func InCooldown(lastProcessed, now time.Time, cooldown time.Duration) bool {
	if lastProcessed.IsZero() {
		return false
	}
	return now.Sub(lastProcessed) < cooldown
}

// Process runs one scheduling step:
//
//  1. stop if still inside the cooldown window;
//  2. drop candidates whose ID was logged, emitted or dismissed before;
//  3. collect every undelivered entry that is due at now and mark it delivered;
//  4. merge, drop dismissed entries, keep the LogCap most recent by ScheduledFor;
//  5. record the new IDs in the emitted ledger and now as the last processed time.
func Process(in Input) Result {
	cooldown := in.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	logCap := in.LogCap
	if logCap <= 0 {
		logCap = DefaultLogCap
	}

	state := in.State.Clone()
	if InCooldown(state.LastProcessed, in.Now, cooldown) {
		return Result{State: state, Skipped: true}
	}

	seen := make(map[string]struct{}, len(state.Log)+len(state.DismissedIDs)+len(state.EmittedIDs))
	for _, n := range state.Log {
		seen[n.ID] = struct{}{}
	}
	for _, id := range state.DismissedIDs {
		seen[id] = struct{}{}
	}
	for _, id := range state.EmittedIDs {
		seen[id] = struct{}{}
	}

	fresh := make([]models.SmartNotification, 0, len(in.Candidates))
	for _, c := range in.Candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		fresh = append(fresh, c)
	}

	merged := append(state.Log, fresh...)

	var due []int
	for i, n := range merged {
		if n.Dismissed || n.DeliveredAt != nil || n.ScheduledFor.After(in.Now) {
			continue
		}
		due = append(due, i)
	}
	sort.SliceStable(due, func(a, b int) bool {
		return merged[due[a]].Priority.Rank() > merged[due[b]].Priority.Rank()
	})

	deliveredAt := in.Now
	toDeliver := make([]models.SmartNotification, 0, len(due))
	for _, i := range due {
		merged[i].DeliveredAt = &deliveredAt
		toDeliver = append(toDeliver, merged[i])
	}

	state.Log = Trim(merged, logCap)
	state.EmittedIDs = remember(state.EmittedIDs, logIDs(fresh), MaxEmittedIDs)
	state.LastProcessed = in.Now

	return Result{
		ToDeliver: toDeliver,
		State:     state,
		Added:     fresh,
	}
}

// Trim drops dismissed entries, orders the rest by ScheduledFor descending and
// keeps at most logCap of them.
func Trim(log []models.SmartNotification, logCap int) []models.SmartNotification {
	kept := lo.Reject(log, func(n models.SmartNotification, _ int) bool {
		return n.Dismissed
	})
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ScheduledFor.After(kept[j].ScheduledFor)
	})
	if len(kept) > logCap {
		kept = kept[:logCap]
	}
	return kept
}

// MarkViewed flags the notification id as viewed.
func MarkViewed(state models.EngineState, id string) (models.EngineState, error) {
	out := state.Clone()
	i := lo.IndexOf(logIDs(out.Log), id)
	if i < 0 {
		return state, ErrNotFound
	}
	out.Log[i].Viewed = true
	return out, nil
}

// Dismiss removes id from the log and remembers it so the same logical event
// is not emitted again.
func Dismiss(state models.EngineState, id string) (models.EngineState, error) {
	out := state.Clone()
	i := lo.IndexOf(logIDs(out.Log), id)
	if i < 0 {
		return state, ErrNotFound
	}
	out.Log = append(out.Log[:i], out.Log[i+1:]...)
	if !lo.Contains(out.DismissedIDs, id) {
		out.DismissedIDs = remember(out.DismissedIDs, []string{id}, MaxDismissedIDs)
	}
	return out, nil
}

// Snooze re-queues id for delivery at until.
func Snooze(state models.EngineState, id string, until time.Time) (models.EngineState, error) {
	out := state.Clone()
	i := lo.IndexOf(logIDs(out.Log), id)
	if i < 0 {
		return state, ErrNotFound
	}
	out.Log[i].ScheduledFor = until
	out.Log[i].DeliveredAt = nil
	out.Log[i].Viewed = false
	return out, nil
}

// Find returns the notification with id.
func Find(state models.EngineState, id string) (models.SmartNotification, bool) {
	return lo.Find(state.Log, func(n models.SmartNotification) bool {
		return n.ID == id
	})
}

// remember appends ids and drops the oldest entries beyond limit.
func remember(ledger, ids []string, limit int) []string {
	ledger = append(ledger, ids...)
	if over := len(ledger) - limit; over > 0 {
		ledger = ledger[over:]
	}
	return ledger
}

func logIDs(log []models.SmartNotification) []string {
	return lo.Map(log, func(n models.SmartNotification, _ int) string {
		return n.ID
	})
}
