package console

// EventBus topics connecting form and list controllers. A saved form
// publishes its resource path; every list bound to the same resource
// refreshes itself.
const (
	TopicFormSaved = "console:form_saved"
	TopicDeleted   = "console:deleted"
)

// Notice is a user-visible failure notification. The UI layer decides
// how to render it (toast, banner); controllers only emit it.
type Notice struct {
	Resource string
	Message  string
	Err      error
}

// NotifyFunc receives failure notifications
type NotifyFunc func(Notice)
