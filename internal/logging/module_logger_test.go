package logging

import (
	"context"
	"testing"

	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.fields = append(r.fields, copied)
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "admin.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerAnnotatesModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = SubmissionLogger(provider)

	if len(provider.requested) != 1 || provider.requested[0] != submissionModule {
		t.Fatalf("expected module %s, got %v", submissionModule, provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != submissionModule {
		t.Fatalf("expected module field %s, got %v", submissionModule, rec.fields)
	}
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
}

func TestWithRecordSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}

	WithRecord(rec, "blogs", "", " update ")

	if len(rec.fields) != 1 {
		t.Fatalf("expected one WithFields call, got %d", len(rec.fields))
	}
	got := rec.fields[0]
	if got[fieldResource] != "blogs" || got[fieldAction] != "update" {
		t.Fatalf("unexpected fields %v", got)
	}
	if _, ok := got[fieldRecordID]; ok {
		t.Fatalf("expected record id to be omitted, got %v", got)
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "r1"})
	ctx = ContextWithFields(ctx, map[string]any{"resource": "books"})

	fields := ContextFields(ctx)
	if fields["request_id"] != "r1" || fields["resource"] != "books" {
		t.Fatalf("expected merged fields, got %v", fields)
	}

	fields["request_id"] = "mutated"
	if ContextFields(ctx)["request_id"] != "r1" {
		t.Fatalf("expected ContextFields to return a copy")
	}
}
