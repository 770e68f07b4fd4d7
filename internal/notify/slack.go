package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/kirillm/sns-trade-bot/internal/domain"
	"github.com/kirillm/sns-trade-bot/pkg/utils"
)

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

// Slack отправляет уведомления во входящий вебхук
type Slack struct {
	client     *resty.Client
	webhookURL string
	limiter    *rate.Limiter
	logger     *utils.Logger
}

// NewSlack создает отправителя. perMinute ограничивает частоту сообщений, 0 без ограничения.
func NewSlack(webhookURL string, timeout time.Duration, perMinute int, logger *utils.Logger) *Slack {
	client := resty.New()
	client.SetTimeout(timeout)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}

	return &Slack{
		client:     client,
		webhookURL: webhookURL,
		limiter:    limiter,
		logger:     logger,
	}
}

func markdown(text string) slackText {
	return slackText{Type: "mrkdwn", Text: text}
}

func (s *Slack) SendBalance(ctx context.Context, positions []domain.Position) error {
	title := markdown(BalanceTitle)
	payload := slackPayload{Blocks: []slackBlock{
		{Type: "section", Text: &title},
		{Type: "divider"},
	}}
	for _, p := range positions {
		lines := PositionLines(p)
		payload.Blocks = append(payload.Blocks,
			slackBlock{Type: "section", Fields: []slackText{
				markdown(lines[0]), markdown(lines[1]), markdown(lines[2]),
			}},
			slackBlock{Type: "divider"},
		)
	}
	return s.post(ctx, payload)
}

func (s *Slack) SendMessage(ctx context.Context, text string) error {
	body := markdown(text)
	return s.post(ctx, slackPayload{Blocks: []slackBlock{{Type: "section", Text: &body}}})
}

func (s *Slack) post(ctx context.Context, payload slackPayload) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("slack rate limit: %w", err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.webhookURL)
	if err != nil {
		return fmt.Errorf("failed to post slack webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("slack webhook status %d: %s", resp.StatusCode(), resp.String())
	}
	s.logger.Debug("slack webhook sent %d blocks", len(payload.Blocks))
	return nil
}
