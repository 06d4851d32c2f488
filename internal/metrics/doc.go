// Package metrics exposes murmur's Prometheus metrics.
package metrics
