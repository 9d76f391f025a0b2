package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rallypc/pccalc/internal/config"
	"github.com/rallypc/pccalc/pkg/timing"
)

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert is one firing or resolved rule.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Event      string     `json:"event,omitempty"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`

	// Report describes the report that fired the alert, or for a resolved
	// alert the report that cleared it.
	Report ReportSummary `json:"report"`
}

// Engine evaluates alert rules against reports and delivers webhooks when a
// rule changes state. Safe for concurrent use.
type Engine struct {
	event    string
	rules    []config.AlertRule
	webhooks []config.WebhookConfig
	client   *http.Client
	now      func() time.Time

	mu       sync.Mutex
	active   map[string]*Alert    // keyed by rule name
	lastFire map[string]time.Time // for cooldown
	history  []*Alert

	inflight sync.WaitGroup
}

// New creates an Engine. An Engine with no rules is valid; Evaluate is a no-op.
func New(event string, cfg config.AlertsConfig) *Engine {
	return &Engine{
		event:    event,
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
	}
}

// Evaluate tests every rule against r. Newly firing rules outside their
// cooldown and rules that stopped firing trigger asynchronous webhook delivery.
//
// A failed report carries no timing data, so only "success" rules are
// evaluated against it; count rules keep their current state.
func (e *Engine) Evaluate(r *timing.Report) {
	if len(e.rules) == 0 || r == nil {
		return
	}
	now := e.now()
	summary := summarize(r)

	for _, rule := range e.rules {
		if !r.Success && conditionField(rule.Condition) != "success" {
			continue
		}
		fires, value := evalCondition(rule.Condition, r)

		e.mu.Lock()
		var notify *Alert
		if fires {
			notify = e.fire(rule, value, summary, now)
		} else {
			notify = e.resolve(rule.Name, summary, now)
		}
		e.mu.Unlock()

		if notify == nil {
			continue
		}
		if notify.State == StateFiring {
			slog.Warn("alert fired", "rule", rule.Name, "value", value, "severity", notify.Severity)
		} else {
			slog.Info("alert resolved", "rule", rule.Name)
		}
		e.inflight.Add(1)
		go func(a *Alert) {
			defer e.inflight.Done()
			e.deliver(a)
		}(notify)
	}
}

// fire records rule as firing and returns a copy to deliver, or nil when the
// rule is already active or still cooling down. Caller holds e.mu.
func (e *Engine) fire(rule config.AlertRule, value float64, summary ReportSummary, now time.Time) *Alert {
	if _, ok := e.active[rule.Name]; ok {
		return nil
	}
	cooldown := rule.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	if last, ok := e.lastFire[rule.Name]; ok && now.Sub(last) < cooldown {
		return nil
	}

	sev := rule.Severity
	if sev == "" {
		sev = "warning"
	}
	a := &Alert{
		ID:       fmt.Sprintf("%s:%d", rule.Name, now.UnixNano()),
		RuleName: rule.Name,
		Event:    e.event,
		Severity: sev,
		Value:    value,
		Message:  fmt.Sprintf("[%s] %s: %s (value %.0f)", sev, rule.Name, rule.Condition, value),
		FiredAt:  now,
		State:    StateFiring,
		Report:   summary,
	}
	if e.event != "" {
		a.Message = fmt.Sprintf("[%s] %s on %s: %s (value %.0f)", sev, rule.Name, e.event, rule.Condition, value)
	}
	e.active[rule.Name] = a
	e.lastFire[rule.Name] = now
	cp := *a
	return &cp
}

// resolve moves an active alert into history. Caller holds e.mu.
func (e *Engine) resolve(name string, summary ReportSummary, now time.Time) *Alert {
	a, ok := e.active[name]
	if !ok {
		return nil
	}
	delete(e.active, name)
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved
	a.Report = summary

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	cp := *a
	return &cp
}

// Active returns copies of all firing alerts plus alerts resolved within the
// past hour, newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Alert, 0, len(e.active))
	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// Wait blocks until all in-flight webhook deliveries have finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}
