package trace

import "context"

type recorderKey struct{}

// WithRecorder attaches a recorder to the context so collaborator clients
// deeper in the call chain can record against the same resolution.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// FromContext returns the recorder carried by ctx, or nil.
func FromContext(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}
