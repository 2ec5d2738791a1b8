package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldStage      = "stage"
	FieldStore      = "store_id"
	FieldWindow     = "window"
	FieldRunID      = "run_id"
	FieldRowCount   = "row_count"
	FieldSkipped    = "skipped_rows"
	FieldFallback   = "fallback"
	FieldCacheHit   = "cache_hit"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentService = "report"
	ComponentSource  = "source"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
)
