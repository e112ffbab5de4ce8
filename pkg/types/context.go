package types

type ContextKey string

const (
	ContextKeyRequestID     ContextKey = "request_id"
	ContextKeyUserID        ContextKey = "user_id"
	ContextKeyRequestSource ContextKey = "request_source"
	ContextKeyStage         ContextKey = "stage"
)
