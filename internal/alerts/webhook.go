package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// deliver posts a to every configured webhook. Failures are logged only.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var payload any
		switch wh.Type {
		case "slack":
			payload = slackPayload(a)
		case "teams":
			payload = teamsPayload(a)
		case "http":
			payload = hookPayload{Event: a.Event, Alert: a}
		default:
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err := e.postJSON(url, payload); err != nil {
			slog.Error("alerts: webhook delivery failed", "type", wh.Type, "rule", a.RuleName, "err", err)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.RuleName, "state", a.State)
	}
}

// hookPayload is the body sent to generic "http" webhooks.
type hookPayload struct {
	Event string `json:"event,omitempty"`
	Alert *Alert `json:"alert"`
}

type slackMessage struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func slackPayload(a *Alert) slackMessage {
	var fields []slackField
	for _, f := range reportFacts(a) {
		fields = append(fields, slackField{Title: f.Name, Value: f.Value, Short: len(f.Value) < 40})
	}
	return slackMessage{
		Text: fmt.Sprintf("*%s* %s", stateLabel(a), a.Message),
		Attachments: []slackAttachment{{
			Color:  "#" + severityColor(a),
			Fields: fields,
			Footer: "calculated " + a.Report.CalculatedAt.Format("2006-01-02 15:04:05"),
		}},
	}
}

type teamsCard struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor"`
	Summary    string         `json:"summary"`
	Title      string         `json:"title"`
	Sections   []teamsSection `json:"sections"`
}

type teamsSection struct {
	ActivityTitle string `json:"activityTitle"`
	Text          string `json:"text,omitempty"`
	Facts         []fact `json:"facts"`
}

func teamsPayload(a *Alert) teamsCard {
	title := "Timing alert: " + a.RuleName
	if a.Event != "" {
		title = fmt.Sprintf("Timing alert on %s: %s", a.Event, a.RuleName)
	}
	var detail []string
	detail = append(detail, a.Report.OverlapDetail...)
	detail = append(detail, a.Report.DuplicateDetail...)
	return teamsCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: severityColor(a),
		Summary:    fmt.Sprintf("%s %s", stateLabel(a), a.RuleName),
		Title:      title,
		Sections: []teamsSection{{
			ActivityTitle: a.Message,
			Text:          strings.Join(detail, "<br>"),
			Facts:         reportFacts(a),
		}},
	}
}

type fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// reportFacts renders the report counts and affected sections of a as
// name/value pairs shared by the chat formats.
func reportFacts(a *Alert) []fact {
	r := a.Report
	facts := []fact{{Name: "State", Value: a.State}}
	if a.Event != "" {
		facts = append(facts, fact{Name: "Event", Value: a.Event})
	}
	if !r.Success {
		return append(facts, fact{Name: "Error", Value: r.Error})
	}
	facts = append(facts,
		fact{Name: "Files", Value: strconv.Itoa(r.Files)},
		fact{Name: "Bibs", Value: strconv.Itoa(r.Bibs)},
		fact{Name: "Sections", Value: strconv.Itoa(r.Sections)},
		fact{Name: "Overlaps", Value: strconv.Itoa(r.Overlaps)},
		fact{Name: "Duplicates", Value: strconv.Itoa(r.Duplicates)},
		fact{Name: "Skipped files", Value: strconv.Itoa(r.SkippedFiles)},
	)
	if len(r.AffectedSections) > 0 {
		facts = append(facts, fact{Name: "Affected sections", Value: strings.Join(r.AffectedSections, ", ")})
	}
	return facts
}

func (e *Engine) postJSON(url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// stateLabel tags resolved alerts as such and firing ones by severity.
func stateLabel(a *Alert) string {
	if a.State == StateResolved {
		return "[RESOLVED]"
	}
	return "[" + strings.ToUpper(a.Severity) + "]"
}

func severityColor(a *Alert) string {
	if a.State == StateResolved {
		return "2EB67D"
	}
	switch a.Severity {
	case "critical":
		return "D72638"
	case "warning":
		return "F49D37"
	}
	return "3F88C5"
}
