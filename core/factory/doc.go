// Package factory instantiates pluggable modules, such as result sinks, from
// configuration. A module is described by a type name and a map of raw
// settings; the registered factory decodes those settings into its own
// struct with Decode.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	_ = reg.Register("nop", func(map[string]any) (metrics.MetricsSink, error) {
//	    return metrics.NopSink{}, nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "nop"})
package factory
