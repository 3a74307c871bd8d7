package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/spec-kit/it-helpdesk/internal/config"
	"github.com/spec-kit/it-helpdesk/internal/events"
	"github.com/spec-kit/it-helpdesk/internal/observability"
)

const slackTimeout = 5 * time.Second

// AutomationPayload is the body POSTed to the automation engine for each new incident.
type AutomationPayload struct {
	TicketID     int64   `json:"ticket_id"`
	Title        string  `json:"title"`
	Department   *string `json:"department"`
	LaptopSerial *string `json:"laptop_serial"`
	ReportedBy   string  `json:"reported_by"`
	ReportedByID int64   `json:"reported_by_id"`
	UserID       int64   `json:"user_id"`
	FileHash     *string `json:"file_hash"`
	FileURL      *string `json:"file_url"`
}

// NotificationService forwards domain events to the automation engine and to chat.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	automation config.AutomationConfig
	slack      config.SlackConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, automation config.AutomationConfig, slackCfg config.SlackConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     loggerOrNop(logger),
		metrics:    metrics,
		automation: automation,
		slack:      slackCfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventIncidentCreated, n.handleIncidentCreated)
	n.dispatcher.Subscribe(events.EventIncidentAcknowledged, n.handleIncidentAcknowledged)
	n.dispatcher.Subscribe(events.EventUserQuarantined, n.handleUserQuarantined)
}

// handleIncidentCreated triggers the automation workflow. Failures are logged and swallowed.
func (n *NotificationService) handleIncidentCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IncidentCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	url := strings.TrimSpace(n.automation.WebhookURL)
	if url == "" {
		return nil
	}

	body := AutomationPayload{
		TicketID:     event.IncidentID,
		Title:        payload.Title,
		Department:   payload.Department,
		LaptopSerial: payload.LaptopSerial,
		ReportedBy:   payload.ReporterName,
		ReportedByID: payload.ReporterID,
		UserID:       payload.ReporterID,
		FileHash:     payload.AttachmentHash,
		FileURL:      payload.AttachmentURL,
	}

	if err := n.postAutomation(url, body); err != nil {
		n.metrics.RecordAutomationCall(false)
		n.logger.Warn("automation webhook failed",
			zap.Int64("incident_id", event.IncidentID),
			zap.String("url", url),
			zap.Error(err))
		return nil
	}
	n.metrics.RecordAutomationCall(true)
	n.logger.Debug("automation webhook delivered", zap.Int64("incident_id", event.IncidentID))
	return nil
}

// postAutomation uses its own fasthttp client bounded by the configured timeout, detached from the request.
func (n *NotificationService) postAutomation(url string, body AutomationPayload) error {
	agent := fiber.Post(url).JSON(body).Timeout(n.automation.Timeout())
	status, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if status >= fiber.StatusBadRequest {
		return fmt.Errorf("automation responded with status %d", status)
	}
	return nil
}

func (n *NotificationService) handleIncidentAcknowledged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IncidentAcknowledgedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	text := fmt.Sprintf("Incident #%d %q acknowledged by %s", event.IncidentID, payload.Title, event.Actor.Label)
	if payload.StatusMessage != nil {
		text = fmt.Sprintf("Incident #%d %q status update: %s", event.IncidentID, payload.Title, *payload.StatusMessage)
	}
	n.postSlack(ctx, text)
	return nil
}

func (n *NotificationService) handleUserQuarantined(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserQuarantinedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.postSlack(ctx, fmt.Sprintf(":rotating_light: Account %s (#%d) quarantined, %d session(s) revoked",
		payload.Username, payload.UserID, payload.SessionsDeleted))
	return nil
}

func (n *NotificationService) postSlack(ctx context.Context, text string) {
	url := strings.TrimSpace(n.slack.WebhookURL)
	if url == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), slackTimeout)
	defer cancel()

	msg := &slack.WebhookMessage{Channel: n.slack.Channel, Text: text}
	if err := slack.PostWebhookContext(ctx, url, msg); err != nil {
		n.logger.Warn("slack notification failed", zap.Error(err))
	}
}
