package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func newBufferLogger(t *testing.T) (Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func TestWithLogger_FromContext(t *testing.T) {
	l, buf := newBufferLogger(t)

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext should fall back to the default logger")
	}
}

func TestContextIDs(t *testing.T) {
	tests := []struct {
		name string
		set  func(context.Context) context.Context
		get  func(context.Context) string
		want string
	}{
		{
			name: "request id",
			set:  func(ctx context.Context) context.Context { return WithRequestID(ctx, "req-1") },
			get:  RequestIDFromContext,
			want: "req-1",
		},
		{
			name: "client id",
			set:  func(ctx context.Context) context.Context { return WithClientID(ctx, "01J9Z") },
			get:  ClientIDFromContext,
			want: "01J9Z",
		},
		{
			name: "request id unset",
			set:  func(ctx context.Context) context.Context { return ctx },
			get:  RequestIDFromContext,
			want: "",
		},
		{
			name: "client id unset",
			set:  func(ctx context.Context) context.Context { return ctx },
			get:  ClientIDFromContext,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.get(tt.set(context.Background()))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestL_EnrichesFields(t *testing.T) {
	l, buf := newBufferLogger(t)

	ctx := WithLogger(context.Background(), l)
	ctx = WithRequestID(ctx, "req-12345")
	ctx = WithClientID(ctx, "client-abc")

	L(ctx).Info("enriched")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["request_id"] != "req-12345" {
		t.Errorf("request_id = %v, want req-12345", entry["request_id"])
	}
	if entry["client_id"] != "client-abc" {
		t.Errorf("client_id = %v, want client-abc", entry["client_id"])
	}
}
