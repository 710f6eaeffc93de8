package context

type Key string

const (
	Claims     Key = "claims"
	RequestCtx Key = "request_ctx"
	Params     Key = "params"
)
