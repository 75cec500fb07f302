package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOwnerID     = "owner_id"
	FieldKind        = "kind"
	FieldCategoryID  = "category_id"
	FieldAmountCents = "amount_cents"
	FieldMonth       = "month"
	FieldPeriodFrom  = "period_from"
	FieldPeriodTo    = "period_to"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentExport  = "export"
	ComponentReport  = "report"
)
