package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldChannel   = "channel"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldErrorKind = "error_kind"
	FieldOperation = "operation"
	FieldProjectID = "project_id"
	FieldExpenseID = "expense_id"
	FieldReceipt   = "receipt"
	FieldFormat    = "format"
	FieldBytes     = "bytes"
	FieldCount     = "count"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentBlob     = "blobstore"
	ComponentStorage  = "storage"
	ComponentExpense  = "expense"
	ComponentBoundary = "boundary"
	ComponentAMQP     = "amqp"
	ComponentCache    = "cache"
	ComponentCLI      = "cli"
	ComponentSheets   = "sheets"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpStore    = "store"
	OpPublish  = "publish"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithError adds the error text; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds the identifiers of an expense row.
func (f LogFields) WithExpense(id, projectID int64, receipt string) LogFields {
	f[FieldExpenseID] = id
	f[FieldProjectID] = projectID
	f[FieldReceipt] = receipt
	return f
}

// WithRequest adds the fields of a boundary request.
func (f LogFields) WithRequest(channel string, durationMs int64) LogFields {
	f[FieldChannel] = channel
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
