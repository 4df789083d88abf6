package prometheus

import (
	prom "github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes the metrics gathered by g to path in the text
// exposition format, for collection by the node exporter textfile collector.
func WriteTextfile(path string, g prom.Gatherer) error {
	if path == "" {
		return nil
	}
	return prom.WriteToTextfile(path, g)
}
