package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/hochfrequenz/observatory-deploy/internal/domain"
)

const slackFooter = "observatory-deploy"

// SlackNotifier posts run summaries to an incoming webhook
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// SlackMessage is the webhook payload
type SlackMessage struct {
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment is the coloured block below the headline. Fields hold one
// entry per executed step.
type SlackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title,omitempty"`
	Text   string       `json:"text,omitempty"`
	Fields []SlackField `json:"fields,omitempty"`
	Footer string       `json:"footer,omitempty"`
	Ts     int64        `json:"ts,omitempty"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlackNotifier creates a Slack notifier. An empty webhook disables it.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SlackPayload builds the webhook message. For a failed run the attachment
// is titled by the failing step and carries its failure kind and detail.
func SlackPayload(n Notification) SlackMessage {
	att := SlackAttachment{
		Color:  slackColor(n.Level),
		Text:   n.Message,
		Footer: slackFooter,
	}

	if run := n.Run; run != nil {
		att.Footer += " · run " + run.ID
		att.Ts = run.StartedAt.Unix()
		if failed, ok := run.FailedStep(); ok {
			att.Title = failed.Description
			att.Text = failed.Result.String()
		}
		for _, step := range run.Steps {
			att.Fields = append(att.Fields, SlackField{
				Title: step.Description,
				Value: stepSummary(step),
				Short: true,
			})
		}
	}

	return SlackMessage{Text: n.Title, Attachments: []SlackAttachment{att}}
}

func stepSummary(step domain.StepOutcome) string {
	status := "ok"
	if !step.Result.OK() {
		status = "failed"
	}
	return fmt.Sprintf("%s · %s", status, step.Duration.Round(time.Millisecond))
}

func slackColor(l Level) string {
	switch l {
	case LevelSuccess:
		return "good"
	case LevelFailure:
		return "danger"
	default:
		return "#439FE0"
	}
}

// Notify posts the run summary
func (s *SlackNotifier) Notify(ctx context.Context, n Notification) error {
	if s.webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(SlackPayload(n))
	if err != nil {
		return errors.Wrap(err, "encoding slack payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "building slack request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "posting to slack")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return errors.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}
