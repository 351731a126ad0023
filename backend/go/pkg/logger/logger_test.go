package logger

import (
	"testing"

	"Paggo/backend/go/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestLogger_DerivedDoesNotMutateParent(t *testing.T) {
	base, hook := test.NewNullLogger()
	parent := FromEntry(logrus.NewEntry(base).WithField("service_name", "docs"))

	child := parent.WithPayload(map[string]interface{}{"document_id": "d1"})
	child.Info("child")
	parent.Info("parent")

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if _, ok := entries[0].Data["payload"]; !ok {
		t.Errorf("child entry should carry payload")
	}
	if _, ok := entries[1].Data["payload"]; ok {
		t.Errorf("parent entry should not carry payload added to child")
	}
}

func TestLogger_WithErrorAndTrace(t *testing.T) {
	base, hook := test.NewNullLogger()
	l := FromEntry(logrus.NewEntry(base))

	l.WithTrace("trace-1", "user-1").
		WithError(models.ErrorInfo{Message: "boom", Type: "ocr_error"}).
		Error("failed")

	last := hook.LastEntry()
	if last == nil {
		t.Fatal("expected an entry")
	}
	if last.Level != logrus.ErrorLevel {
		t.Errorf("expected error level, got %v", last.Level)
	}
	if last.Data["trace_id"] != "trace-1" || last.Data["user_id"] != "user-1" {
		t.Errorf("unexpected trace fields: %v", last.Data)
	}
	info, ok := last.Data["error"].(models.ErrorInfo)
	if !ok || info.Message != "boom" {
		t.Errorf("unexpected error field: %#v", last.Data["error"])
	}
}

func TestLogger_WithErrNil(t *testing.T) {
	base, hook := test.NewNullLogger()
	l := FromEntry(logrus.NewEntry(base))
	l.WithErr(nil).Warn("no error")
	if _, ok := hook.LastEntry().Data["error"]; ok {
		t.Errorf("nil error should not add an error field")
	}
}
