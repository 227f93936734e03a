package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const requestDataKey contextKey = "ultaura_request_data"

// RequestData carries the authenticated caller identity through a request.
// It is attached by the auth middleware after token verification.
type RequestData struct {
	AccountID   uuid.UUID
	CaregiverID uuid.UUID
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	rd, _ := ctx.Value(requestDataKey).(*RequestData)
	return rd
}

const traceDataKey contextKey = "ultaura_trace_data"

// TraceData carries correlation ids for request logging.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	td, _ := ctx.Value(traceDataKey).(*TraceData)
	return td
}
