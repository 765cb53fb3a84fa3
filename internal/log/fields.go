package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldUserID     = "user_id"
	FieldChatID     = "chat_id"
	FieldTxID       = "tx_id"
	FieldKind       = "kind"
	FieldCategoryID = "category_id"
	FieldAmount     = "amount"
	FieldStep       = "step"
	FieldMode       = "mode"
	FieldDays       = "days"
	FieldOffset     = "offset"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldCount      = "count"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentBot     = "bot"
	ComponentDialog  = "dialog"
	ComponentStorage = "storage"
	ComponentReport  = "report"
	ComponentRender  = "render"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpList     = "list"
	OpDelete   = "delete"
	OpUndo     = "undo"
	OpParse    = "parse"
	OpRender   = "render"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
