package intercept

import "log/slog"

// AttachLogObserver subscribes a structured-logging observer to the bus.
// It emits one governance log line per decision and one per alert fan-out,
// giving headless deployments a durable trace of enforcement activity
// without a dashboard attached.
func AttachLogObserver(bus *Bus, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "governance")

	decision := func(event Event) {
		log.Info("policy decision",
			"event", string(event.Kind),
			"decision", string(event.Evaluation.Decision),
			"rule_id", event.Evaluation.MatchedRuleID,
			"category", event.Evaluation.Classification.Category,
			"confidence", event.Evaluation.Classification.Confidence,
			"audit_level", string(event.Evaluation.AuditLevel),
		)
	}
	bus.Subscribe(EventResponse, decision)
	bus.Subscribe(EventBlocked, decision)

	bus.Subscribe(EventAlert, func(event Event) {
		log.Warn("alert dispatched",
			"target", event.AlertTarget,
			"rule_id", event.Evaluation.MatchedRuleID,
			"decision", string(event.Evaluation.Decision),
		)
	})
}
