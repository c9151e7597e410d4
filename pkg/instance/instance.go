package instance

import "os"

// GetID identifies this worker process in logs. Prefers the explicit
// BULKBUY_WORKER_ID, then the pod hostname, then a fixed fallback.
func GetID() string {
	if id := os.Getenv("BULKBUY_WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "bulkbuy-worker-0"
}
