package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/olegiv/catadmin/internal/store"
	"github.com/olegiv/catadmin/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, db *sql.DB) []store.Event {
	t.Helper()
	events, err := store.New(db).ListEvents(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandler_Levels(t *testing.T) {
	tests := []struct {
		name      string
		log       func(l *slog.Logger)
		wantLevel string
	}{
		{"error", func(l *slog.Logger) { l.Error("database connection failed") }, EventLevelError},
		{"warn", func(l *slog.Logger) { l.Warn("slow query detected") }, EventLevelWarning},
		{"info", func(l *slog.Logger) { l.Info("server started") }, ""},
		{"debug", func(l *slog.Logger) { l.Debug("tree built") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.TestDB(t)
			tt.log(slog.New(NewEventLogHandler(discardHandler{}, db)))

			events := listEvents(t, db)
			if tt.wantLevel == "" {
				if len(events) != 0 {
					t.Fatalf("expected no events, got %d", len(events))
				}
				return
			}
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", events[0].Level, tt.wantLevel)
			}
		})
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))

	logger.Info("seeded demo categories")

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Level != EventLevelInfo {
		t.Errorf("Level = %q, want %q", events[0].Level, EventLevelInfo)
	}
}

func TestEventCategory(t *testing.T) {
	tests := []struct {
		msg   string
		attrs []slog.Attr
		want  string
	}{
		{"category data inconsistency", nil, EventCategoryIntegrity},
		{"integrity audit found violations", nil, EventCategoryIntegrity},
		{"category move rejected", nil, EventCategoryMove},
		{"redis unavailable", nil, EventCategoryCache},
		{"request failed", nil, EventCategoryHTTP},
		{"shutdown timed out", nil, EventCategorySystem},
		{"category move rejected", []slog.Attr{slog.String("category", "custom")}, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := eventCategory(tt.msg, tt.attrs); got != tt.want {
				t.Errorf("eventCategory(%q) = %q, want %q", tt.msg, got, tt.want)
			}
		})
	}
}

func TestEventLogHandler_Metadata(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).With("revision", 7)

	logger.Warn("category data inconsistency",
		"category", EventCategoryIntegrity,
		"category_id", 12,
		"kind", "orphan",
		"note", `quoted "value"`+"\n")

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Category != EventCategoryIntegrity {
		t.Errorf("Category = %q, want %q", events[0].Category, EventCategoryIntegrity)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v (%s)", err, events[0].Metadata)
	}
	want := map[string]string{
		"revision":    "7",
		"category_id": "12",
		"kind":        "orphan",
		"note":        "quoted \"value\"\n",
	}
	for k, v := range want {
		if meta[k] != v {
			t.Errorf("metadata[%q] = %q, want %q", k, meta[k], v)
		}
	}
	if _, ok := meta["category"]; ok {
		t.Error("category attribute should not be repeated in metadata")
	}
}

func TestEventLogHandler_WithGroup(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).WithGroup("audit")

	logger.Warn("integrity audit found violations", "count", 2)

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata is not valid JSON: %v", err)
	}
	if meta["audit.count"] != "2" {
		t.Errorf("metadata = %v, want audit.count=2", meta)
	}
}

func TestEventLogHandler_EmptyMetadata(t *testing.T) {
	db := testutil.TestDB(t)
	slog.New(NewEventLogHandler(discardHandler{}, db)).Error("shutdown timed out")

	events := listEvents(t, db)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Metadata != "{}" {
		t.Errorf("Metadata = %q, want {}", events[0].Metadata)
	}
}
