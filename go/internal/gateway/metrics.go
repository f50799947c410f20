package gateway

// MetricsCollector receives gateway activity
type MetricsCollector interface {
	RecordRefresh(success bool)
	RecordPublish(success bool)
	RecordConnections(n int)
	RecordTick()
}

// NoOpMetricsCollector is used when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordRefresh(bool)    {}
func (NoOpMetricsCollector) RecordPublish(bool)    {}
func (NoOpMetricsCollector) RecordConnections(int) {}
func (NoOpMetricsCollector) RecordTick()           {}
