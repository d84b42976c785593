package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ytframes/internal/config"
)

const userAgent = "ytframes/0.1.0"

// Event names a workflow milestone.
type Event string

const (
	EventSelectionReady Event = "selection_ready"
	EventDatasetReady   Event = "dataset_ready"
	EventUploaded       Event = "uploaded"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event fields keyed by name.
type Payload map[string]any

// Service publishes workflow events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// NotifyDatasetReady announces a finished archive.
func NotifyDatasetReady(ctx context.Context, svc Service, title, archivePath string, frameCount int) error {
	if svc == nil {
		return nil
	}
	return svc.Publish(ctx, EventDatasetReady, Payload{
		"title":       title,
		"archivePath": archivePath,
		"frameCount":  frameCount,
	})
}

// NotifyFailure announces a failed stage.
func NotifyFailure(ctx context.Context, svc Service, stage string, err error) error {
	if svc == nil {
		return nil
	}
	msg := "unknown"
	if err != nil {
		msg = err.Error()
	}
	return svc.Publish(ctx, EventError, Payload{"context": stage, "error": msg})
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventSelectionReady:
		return message{
			title: "ytframes - Ready for Selection",
			body:  fmt.Sprintf("🖼️ %d frames ready to pick: %s", payloadInt(payload, "frameCount"), payloadString(payload, "title")),
			tags:  []string{"ytframes", "sampling", "completed"},
		}, true
	case EventDatasetReady:
		body := fmt.Sprintf("📦 Dataset ready: %s (%d frames)", payloadString(payload, "title"), payloadInt(payload, "frameCount"))
		if path := payloadString(payload, "archivePath"); path != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, path)
		}
		return message{
			title:    "ytframes - Dataset Ready",
			body:     body,
			tags:     []string{"ytframes", "archive", "completed"},
			priority: "high",
		}, true
	case EventUploaded:
		return message{
			title: "ytframes - Uploaded",
			body:  fmt.Sprintf("☁️ Uploaded: %s", payloadString(payload, "url")),
			tags:  []string{"ytframes", "upload"},
		}, true
	case EventError:
		var b strings.Builder
		b.WriteString("❌ Error")
		if label := payloadString(payload, "context"); label != "" {
			b.WriteString(" with ")
			b.WriteString(label)
		}
		b.WriteString(": ")
		if msg := payloadString(payload, "error"); msg != "" {
			b.WriteString(msg)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "ytframes - Error",
			body:     b.String(),
			tags:     []string{"ytframes", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "ytframes - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"ytframes", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func payloadString(p Payload, key string) string {
	if v, ok := p[key]; ok && v != nil {
		return strings.TrimSpace(fmt.Sprint(v))
	}
	return ""
}

func payloadInt(p Payload, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
