package monitor

import (
	"log/slog"

	"github.com/ineyio/usagemeter"
)

// LogMonitor logs metering events using slog.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ usagemeter.Monitor = (*LogMonitor)(nil)

// NewLogMonitor creates a LogMonitor with the given logger.
// If logger is nil, slog.Default() is used.
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{Logger: logger}
}

func (m *LogMonitor) OnConsume(e usagemeter.ConsumeEvent) {
	switch e.Outcome {
	case usagemeter.OutcomeSettled:
		m.Logger.Info("consume",
			"account", e.Account,
			"work_id", e.WorkID,
			"input_units", e.Usage.InputUnits,
			"output_units", e.Usage.OutputUnits,
			"billable_units", e.BillableUnits,
			"provider_cost", e.ProviderCost,
			"new_balance", e.NewBalance,
			"duration_ms", e.Duration.Milliseconds(),
		)
	case usagemeter.OutcomeAlreadySettled:
		m.Logger.Info("consume_replay",
			"account", e.Account,
			"work_id", e.WorkID,
			"duration_ms", e.Duration.Milliseconds(),
		)
	default:
		m.Logger.Warn("consume_rejected",
			"account", e.Account,
			"work_id", e.WorkID,
			"outcome", e.Outcome.String(),
			"duration_ms", e.Duration.Milliseconds(),
			"error", e.Err,
		)
	}
}

func (m *LogMonitor) OnCredit(e usagemeter.CreditEvent) {
	if e.Err != nil {
		m.Logger.Warn("credit_error",
			"account", e.Account,
			"delta", e.Delta,
			"error", e.Err,
		)
		return
	}
	m.Logger.Info("credit",
		"account", e.Account,
		"delta", e.Delta,
		"new_balance", e.NewBalance,
	)
}
