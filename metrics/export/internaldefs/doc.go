// Package internaldefs holds the metric name and help-text tables shared
// by exporters. It exists so exporter packages agree on one naming scheme
// without importing each other.
package internaldefs
