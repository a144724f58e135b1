package ctxutil

import "context"

type requestDataKey struct{}

// RequestData identifies the request a piece of work belongs to.
type RequestData struct {
	TraceID   string
	RequestID string
	// ItemID is the content item the request targets, when the route names one.
	ItemID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), requestDataKey{}, rd)
}

func RequestDataFrom(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	rd, _ := ctx.Value(requestDataKey{}).(*RequestData)
	return rd
}

// LogFields returns trace_id/request_id as logger key/values, omitting empty ones.
func LogFields(ctx context.Context) []any {
	rd := RequestDataFrom(ctx)
	if rd == nil {
		return nil
	}
	var kv []any
	if rd.TraceID != "" {
		kv = append(kv, "trace_id", rd.TraceID)
	}
	if rd.RequestID != "" {
		kv = append(kv, "request_id", rd.RequestID)
	}
	return kv
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
