package observability

import (
	"fmt"
	"sort"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	BlockedHours   int
	StaleDays      int
	MaxBacklogSize int
}

// DefaultAlertThresholds returns sensible defaults.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		BlockedHours:   24,
		StaleDays:      3,
		MaxBacklogSize: 50,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
}

// NewAlertEngine creates an AlertEngine reading from the given EventLog.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{eventLog: eventLog, thresholds: thresholds}
}

// taskState is the reconstructed latest state of one task.
type taskState struct {
	status    string
	changedAt time.Time
	deleted   bool
}

// Evaluate replays the event log into a latest-status-per-task view and
// checks every alert condition against it.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	states, err := ae.replay()
	if err != nil {
		return nil, fmt.Errorf("replaying event log: %w", err)
	}

	now := time.Now().UTC()
	var alerts []Alert
	alerts = append(alerts, ae.checkBlocked(states, now)...)
	alerts = append(alerts, ae.checkStale(states, now)...)
	alerts = append(alerts, ae.checkBacklogSize(states, now)...)
	return alerts, nil
}

// replay folds creation, status change, completion, and deletion events into
// the latest known status per task.
func (ae *alertEngine) replay() (map[string]*taskState, error) {
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, err
	}

	states := make(map[string]*taskState)
	for _, event := range events {
		taskID, _ := event.Data["task_id"].(string)
		if taskID == "" {
			continue
		}
		switch event.Type {
		case EventTaskCreated:
			status, _ := event.Data["status"].(string)
			states[taskID] = &taskState{status: status, changedAt: event.Time}
		case EventTaskStatusChanged:
			status, _ := event.Data["new_status"].(string)
			states[taskID] = &taskState{status: status, changedAt: event.Time}
		case EventTaskCompleted:
			states[taskID] = &taskState{status: "done", changedAt: event.Time}
		case EventTaskUnblocked:
			states[taskID] = &taskState{status: "ready", changedAt: event.Time}
		case EventTaskDeleted:
			states[taskID] = &taskState{deleted: true}
		}
	}
	for id, state := range states {
		if state.deleted {
			delete(states, id)
		}
	}
	return states, nil
}

func (ae *alertEngine) checkBlocked(states map[string]*taskState, now time.Time) []Alert {
	threshold := time.Duration(ae.thresholds.BlockedHours) * time.Hour
	var alerts []Alert
	for _, taskID := range sortedIDs(states) {
		state := states[taskID]
		if state.status == "blocked" && now.Sub(state.changedAt) > threshold {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("blocked-%s", taskID),
				Condition:   "task_blocked_too_long",
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("task %s has been blocked for more than %d hours", taskID, ae.thresholds.BlockedHours),
				TriggeredAt: now,
			})
		}
	}
	return alerts
}

func (ae *alertEngine) checkStale(states map[string]*taskState, now time.Time) []Alert {
	threshold := time.Duration(ae.thresholds.StaleDays) * 24 * time.Hour
	var alerts []Alert
	for _, taskID := range sortedIDs(states) {
		state := states[taskID]
		if state.status == "in_progress" && now.Sub(state.changedAt) > threshold {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("stale-%s", taskID),
				Condition:   "task_in_progress_stale",
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("task %s has been in progress without a status change for more than %d days", taskID, ae.thresholds.StaleDays),
				TriggeredAt: now,
			})
		}
	}
	return alerts
}

func (ae *alertEngine) checkBacklogSize(states map[string]*taskState, now time.Time) []Alert {
	waiting := 0
	for _, state := range states {
		if state.status == "backlog" || state.status == "ready" {
			waiting++
		}
	}
	if waiting <= ae.thresholds.MaxBacklogSize {
		return nil
	}
	return []Alert{{
		ID:          "backlog-size",
		Condition:   "backlog_too_large",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("%d tasks are waiting (backlog/ready), more than the configured maximum of %d", waiting, ae.thresholds.MaxBacklogSize),
		TriggeredAt: now,
	}}
}

func sortedIDs(states map[string]*taskState) []string {
	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
