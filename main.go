package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// main wires the configuration, the refresh scheduler and the HTTP surface
// together and starts the server.
func main() {
	cfg := config()

	scheduler := NewScheduler(cfg)
	scheduler.Start()
	defer scheduler.Stop()

	mux := http.NewServeMux()

	mux.HandleFunc("/api/draw/start", cfg.handlerDrawStart)
	mux.HandleFunc("/api/draw/point", cfg.handlerDrawPoint)
	mux.HandleFunc("/api/draw/cancel", cfg.handlerDrawCancel)
	mux.HandleFunc("/api/regions", cfg.handlerRegions)
	mux.HandleFunc("/api/region", cfg.handlerRegion)
	mux.HandleFunc("/api/region/rules", cfg.handlerRegionRules)
	mux.HandleFunc("/api/region/datasource", cfg.handlerRegionDataSource)
	mux.HandleFunc("/api/region/name", cfg.handlerRegionName)
	mux.HandleFunc("/api/timeline", cfg.handlerTimeline)
	mux.HandleFunc("/api/timeline/grid", cfg.handlerTimelineGrid)
	mux.HandleFunc("/api/timeline/position", cfg.handlerTimelinePosition)
	mux.HandleFunc("/api/events", cfg.handlerEvents)
	mux.HandleFunc("/api/config", cfg.handlerConfig)
	mux.Handle("/metrics", promhttp.Handler())

	if cfg.devMode {
		mux.HandleFunc("/dev/reset", cfg.handlerReset)
		mux.HandleFunc("/dev/refresh", scheduler.handlerRunRefresh)
	}

	handler := corsMiddleware(metricsMiddleware(mux))

	cfg.logger.Info("server starting", "port", cfg.port, "devMode", cfg.devMode)
	if err := http.ListenAndServe(":"+cfg.port, handler); err != nil {
		cfg.logger.Error("server error", "error", err)
	}
}
