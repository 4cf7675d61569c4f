package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/NaiYuk/Taskun/internal/models"
)

// NotificationAction names the task mutation a notification reports.
type NotificationAction string

const (
	ActionCreated NotificationAction = "created"
	ActionUpdated NotificationAction = "updated"
)

// TaskNotification is the payload sent to the team channel after a task
// mutation commits.
type TaskNotification struct {
	Action    NotificationAction
	Task      models.Task
	UserEmail string
}

// SlackService posts task notifications to a Slack incoming webhook.
// Best effort: callers dispatch it after the mutation committed and must
// never let a failure here affect the primary response.
type SlackService struct {
	webhookURL string
	client     *http.Client
}

func NewSlackService(webhookURL string) *SlackService {
	return &SlackService{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

func (s *SlackService) Notify(ctx context.Context, n TaskNotification) error {
	if s == nil || s.webhookURL == "" {
		log.Printf("[slack][skip] webhook not configured")
		return nil
	}

	text := fmt.Sprintf("Task %s: *%s* (status: %s, priority: %s) by %s",
		n.Action, n.Task.Title, n.Task.Status, n.Task.Priority, n.UserEmail)

	b, _ := json.Marshal(slackPayload{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[slack][send] action=%s task=%q", n.Action, n.Task.Title)
	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[slack][send][err] http: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack webhook failed: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

// NotifyAsync runs Notify detached from the request that triggered it, with
// its own deadline. Errors are logged and swallowed.
func (s *SlackService) NotifyAsync(n TaskNotification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Notify(ctx, n); err != nil {
			log.Printf("[slack][notify][err] action=%s task=%q: %v", n.Action, n.Task.Title, err)
		}
	}()
}
