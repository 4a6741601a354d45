package middleware

import (
	"github.com/grafana/pyroscope-go"

	"github.com/duynhne/portfolio-service/config"
)

var profiler *pyroscope.Profiler

// InitProfiling initializes Pyroscope profiling with automatic service detection
// The endpoint comes from PYROSCOPE_ENDPOINT via config.Load()
//
// Usage:
//
//	if err := middleware.InitProfiling(cfg.Profiling); err != nil {
//	    logger.Warn("Failed to initialize profiling", zap.Error(err))
//	}
//	defer middleware.StopProfiling()
func InitProfiling(cfg config.ProfilingConfig) error {
	// Auto-detect service name and namespace from Kubernetes environment
	// Outside a cluster detection yields unknownService, so fall back to SERVICE_NAME
	serviceName, namespace := detectServiceInfo()
	if serviceName == unknownService && cfg.ServiceName != "" {
		serviceName = cfg.ServiceName
	}

	// Configure Pyroscope with auto-detected service information
	// Mutex and block profiles are left out: request handling here is I/O bound
	// on MongoDB and Redis, and those profiles need runtime sampling rates set.
	pcfg := pyroscope.Config{
		ApplicationName: serviceName,
		ServerAddress:   cfg.Endpoint,
		Tags: map[string]string{
			"service":   serviceName,
			"namespace": namespace,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	}

	// Start profiling
	var err error
	profiler, err = pyroscope.Start(pcfg)
	return err
}

// StopProfiling stops Pyroscope profiling, flushing the last upload
// Safe to call when profiling was never started
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
	}
}
