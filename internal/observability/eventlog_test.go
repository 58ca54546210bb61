package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testEventLog(t *testing.T) (EventLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog() error = %v", err)
	}
	t.Cleanup(func() { log.Close() })
	return log, path
}

func TestJSONLEventLog_RoundTrip(t *testing.T) {
	log, _ := testEventLog(t)

	if err := log.LogEvent(EventTaskCreated, map[string]any{"task_id": "JC-TASK-001", "status": "ready"}); err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}
	if err := log.LogEvent(EventTaskCompleted, map[string]any{"task_id": "JC-TASK-001"}); err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Read() returned %d events, want 2", len(events))
	}
	if events[0].Type != EventTaskCreated || events[1].Type != EventTaskCompleted {
		t.Errorf("event types = [%s, %s]", events[0].Type, events[1].Type)
	}
	if id, _ := events[0].Data["task_id"].(string); id != "JC-TASK-001" {
		t.Errorf("task_id = %q, want JC-TASK-001", id)
	}
	if events[0].Time.IsZero() {
		t.Error("event time not stamped")
	}
}

func TestJSONLEventLog_FilterByType(t *testing.T) {
	log, _ := testEventLog(t)

	log.LogEvent(EventTaskCreated, map[string]any{"task_id": "JC-TASK-001"})
	log.LogEvent(EventTaskStatusChanged, map[string]any{"task_id": "JC-TASK-001", "new_status": "in_progress"})
	log.LogEvent(EventTaskCreated, map[string]any{"task_id": "JC-TASK-002"})

	events, err := log.Read(EventFilter{Type: EventTaskCreated})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Read(Type=created) returned %d events, want 2", len(events))
	}
	for _, e := range events {
		if e.Type != EventTaskCreated {
			t.Errorf("unexpected event type %q", e.Type)
		}
	}
}

func TestJSONLEventLog_FilterByTime(t *testing.T) {
	log, _ := testEventLog(t)

	log.LogEvent(EventTaskCreated, map[string]any{"task_id": "JC-TASK-001"})

	cutoff := time.Now().UTC().Add(time.Second)
	future := cutoff.Add(time.Hour)

	events, err := log.Read(EventFilter{Since: &cutoff})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Read(Since=future) returned %d events, want 0", len(events))
	}

	events, err = log.Read(EventFilter{Until: &future})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("Read(Until=future) returned %d events, want 1", len(events))
	}
}

func TestJSONLEventLog_SkipsMalformedLines(t *testing.T) {
	log, path := testEventLog(t)

	log.LogEvent(EventTaskCreated, map[string]any{"task_id": "JC-TASK-001"})

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening log file: %v", err)
	}
	f.WriteString("this is not json\n\n")
	f.Close()

	log.LogEvent(EventTaskCompleted, map[string]any{"task_id": "JC-TASK-001"})

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Read() returned %d events, want 2 with the garbage line skipped", len(events))
	}
}

func TestJSONLEventLog_ReadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog() error = %v", err)
	}
	defer log.Close()

	os.Remove(path)

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read() on missing file error = %v", err)
	}
	if events != nil {
		t.Errorf("Read() on missing file = %v, want nil", events)
	}
}

func TestJSONLEventLog_AppendAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	first, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog() error = %v", err)
	}
	first.LogEvent(EventTaskCreated, map[string]any{"task_id": "JC-TASK-001"})
	first.Close()

	second, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("NewJSONLEventLog() reopen error = %v", err)
	}
	defer second.Close()
	second.LogEvent(EventTaskCompleted, map[string]any{"task_id": "JC-TASK-001"})

	events, err := second.Read(EventFilter{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(events) != 2 {
		t.Errorf("Read() returned %d events, want 2 across reopens", len(events))
	}
}
