package monitoring

import (
	"github.com/rs/zerolog/log"
)

// Alert records an operational alert. There is no pager integration, so an
// alert is an error log line plus a counter increment.
func Alert(name, message string, labels map[string]string) {
	Alerts.WithLabelValues(name).Inc()

	fields := make(map[string]any, len(labels))
	for k, v := range labels {
		fields[k] = v
	}
	log.Error().
		Str("alert", name).
		Fields(fields).
		Msg("ALERT: " + message)
}
