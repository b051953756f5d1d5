package metrics

import "sync"

var (
	global *Metrics
	mu     sync.RWMutex
)

// SetGlobal 设置全局指标实例
func SetGlobal(m *Metrics) {
	mu.Lock()
	defer mu.Unlock()
	global = m
}

// Global 获取全局指标实例，可能为 nil
func Global() *Metrics {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// RecordAssessment proxies to the global instance when configured.
func RecordAssessment(level string) {
	if m := Global(); m != nil {
		m.RecordAssessment(level)
	}
}

func RecordAlert(level string) {
	if m := Global(); m != nil {
		m.RecordAlert(level)
	}
}

func RecordEscalation() {
	if m := Global(); m != nil {
		m.RecordEscalation()
	}
}

func RecordAcknowledgment() {
	if m := Global(); m != nil {
		m.RecordAcknowledgment()
	}
}

func RecordNotification(channel, outcome string) {
	if m := Global(); m != nil {
		m.RecordNotification(channel, outcome)
	}
}

func RecordCapabilityFailure(name string) {
	if m := Global(); m != nil {
		m.RecordCapabilityFailure(name)
	}
}
