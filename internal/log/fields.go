package log

// Field names shared across components.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldAccountID     = "account_id"
	FieldTransactionID = "transaction_id"
	FieldCategoryID    = "category_id"
	FieldAmount        = "amount"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldCount         = "count"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentWorker  = "worker"
	ComponentBackend = "backend"
)

// Standard operation names.
const (
	OpCreate = "create"
	OpDelete = "delete"
)
