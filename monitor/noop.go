package monitor

import "github.com/ineyio/usagemeter"

// NoopMonitor is a monitor that does nothing.
type NoopMonitor struct{}

var _ usagemeter.Monitor = (*NoopMonitor)(nil)

func (m *NoopMonitor) OnConsume(usagemeter.ConsumeEvent) {}
func (m *NoopMonitor) OnCredit(usagemeter.CreditEvent)   {}
