package metrics

import "github.com/chauffeurjet/dispatch/core/factory"

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink registers a sink factory under the given type name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewMetricsSink instantiates a sink from its module configuration.
func NewMetricsSink(cfg factory.ModuleConfig) (MetricsSink, error) {
	return sinkRegistry.Create(cfg)
}
