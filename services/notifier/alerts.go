package notifier

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/logcolors"
)

// DefaultAlertCooldown is the minimum spacing between alerts of the
// same event type.
const DefaultAlertCooldown = 15 * time.Minute

// AlertHandler turns bus events into notifications, with a per-type
// cooldown so a flapping component doesn't flood the channels.
type AlertHandler struct {
	notifiers        []Notifier
	cooldowns        map[EventType]time.Time
	cooldownDuration time.Duration
	mu               sync.RWMutex
}

// AlertConfig configures an AlertHandler.
type AlertConfig struct {
	Notifiers        []Notifier
	CooldownDuration time.Duration
}

// NewAlertHandler creates an alert handler.
func NewAlertHandler(config AlertConfig) *AlertHandler {
	cooldown := config.CooldownDuration
	if cooldown == 0 {
		cooldown = DefaultAlertCooldown
	}
	return &AlertHandler{
		notifiers:        config.Notifiers,
		cooldowns:        make(map[EventType]time.Time),
		cooldownDuration: cooldown,
	}
}

// Start subscribes the handler to the event bus.
func (h *AlertHandler) Start() {
	GetEventBus().SubscribeAll(h.handleEvent)
	log.Infof("%s Alert handler started (cooldown: %v, notifiers: %d)",
		logcolors.LogNotifier, h.cooldownDuration, len(h.notifiers))
}

func (h *AlertHandler) handleEvent(event *Event) {
	if !h.shouldAlert(event.Type) {
		log.Debugf("%s Skipping alert for %s (cooldown active)", logcolors.LogNotifier, event.Type)
		return
	}

	subject, message := h.formatAlert(event)
	if subject == "" {
		return
	}
	h.sendAlert(subject, message, event)
}

func (h *AlertHandler) shouldAlert(eventType EventType) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	lastAlert, exists := h.cooldowns[eventType]
	if !exists || time.Since(lastAlert) >= h.cooldownDuration {
		h.cooldowns[eventType] = time.Now()
		return true
	}
	return false
}

func (h *AlertHandler) formatAlert(event *Event) (subject, message string) {
	switch event.Type {
	case EventCircuitBreakerOpen:
		name, _ := event.Data["name"].(string)
		failures, _ := event.Data["failures"].(int)
		cooldown, _ := event.Data["cooldown"].(string)
		subject = "Circuit Breaker OPEN"
		message = fmt.Sprintf(
			"The %s circuit breaker has tripped after %d consecutive failures.\n\n"+
				"Search requests will be blocked for %s.\n\n"+
				"Action: Check the lyrics search API status and the access token.",
			name, failures, cooldown)

	case EventHighFailureRate:
		name, _ := event.Data["name"].(string)
		failures, _ := event.Data["failures"].(int)
		threshold, _ := event.Data["threshold"].(int)
		subject = "High Failure Rate"
		message = fmt.Sprintf(
			"The %s circuit breaker has seen %d consecutive failures (threshold: %d).\n\n"+
				"It may trip soon if the upstream does not recover.",
			name, failures, threshold)

	case EventCircuitBreakerRecovered:
		name, _ := event.Data["name"].(string)
		subject = "Circuit Breaker Recovered"
		message = fmt.Sprintf("The %s circuit breaker closed after a successful probe. Normal operation resumed.", name)

	case EventCacheBackupFailed:
		errMsg, _ := event.Data["error"].(string)
		subject = "Cache Backup Failed"
		message = fmt.Sprintf("A cache backup operation failed:\n\n%s", errMsg)

	case EventCacheCleared:
		backupPath, _ := event.Data["backup_path"].(string)
		subject = "Cache Cleared"
		message = fmt.Sprintf("The lyrics cache was cleared. Backup written to:\n%s", backupPath)

	case EventServerStarted:
		port, _ := event.Data["port"].(string)
		subject = "Server Started"
		message = fmt.Sprintf("The lyrics resolver started and is listening on port %s.", port)

	case EventServerStartupFailed:
		component, _ := event.Data["component"].(string)
		errMsg, _ := event.Data["error"].(string)
		subject = "Server Startup Failed"
		message = fmt.Sprintf("Startup failed in component %s:\n\n%s", component, errMsg)
	}
	return subject, message
}

func (h *AlertHandler) sendAlert(subject, message string, event *Event) {
	prefix := ""
	switch event.Severity {
	case SeverityCritical:
		prefix = "[CRITICAL] "
	case SeverityWarning:
		prefix = "[WARNING] "
	}

	for _, n := range h.notifiers {
		if err := n.Send(prefix+subject, message); err != nil {
			log.Errorf("%s Failed to send alert %q: %v", logcolors.LogNotifier, subject, err)
		}
	}
}
