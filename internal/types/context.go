package types

type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
)

const (
	HeaderRequestID = "X-Request-ID"
)
