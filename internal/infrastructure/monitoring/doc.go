/*
Package monitoring provides Prometheus metrics for the hovershell daemon.

Tracked series cover the three latency-sensitive subsystems: visibility
transitions and dwell outcomes, session lifecycle and scrollback eviction,
and provider request counts, durations, and stream fragment delivery.

Usage:

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetricsWith(reg)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
