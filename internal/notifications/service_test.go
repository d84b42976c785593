package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ytframes/internal/config"
	"ytframes/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := notifications.NotifyDatasetReady(context.Background(), svc, "Example", "/tmp/x.zip", 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func capture(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		got.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:          "selection ready",
			event:         notifications.EventSelectionReady,
			payload:       notifications.Payload{"title": "Cats", "frameCount": 6},
			expectTitle:   "ytframes - Ready for Selection",
			expectMessage: "🖼️ 6 frames ready to pick: Cats",
			expectTags:    "ytframes,sampling,completed",
		},
		{
			name:           "dataset ready",
			event:          notifications.EventDatasetReady,
			payload:        notifications.Payload{"title": "Cats", "frameCount": 3, "archivePath": "/data/catdog.zip"},
			expectTitle:    "ytframes - Dataset Ready",
			expectMessage:  "📦 Dataset ready: Cats (3 frames)\nFile: /data/catdog.zip",
			expectTags:     "ytframes,archive,completed",
			expectPriority: "high",
		},
		{
			name:           "error",
			event:          notifications.EventError,
			payload:        notifications.Payload{"context": "sampling", "error": "decode failed"},
			expectTitle:    "ytframes - Error",
			expectMessage:  "❌ Error with sampling: decode failed",
			expectTags:     "ytframes,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := capture(t, http.StatusOK)

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNotifyFailureUsesErrorEvent(t *testing.T) {
	server, got := capture(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	if err := notifications.NotifyFailure(context.Background(), notifications.NewService(&cfg), "download", errors.New("private video")); err != nil {
		t.Fatalf("NotifyFailure: %v", err)
	}
	if got.body != "❌ Error with download: private video" {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := capture(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestNtfyServiceIgnoresUnknownEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for unknown event")
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.Event("other"), nil); err != nil {
		t.Fatalf("expected nil for unknown event, got %v", err)
	}
}
