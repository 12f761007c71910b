package runtime

import (
	"context"

	"github.com/mhamid3d/maya-usd/pkg/domain"
	"github.com/mhamid3d/maya-usd/pkg/ports"
)

type pathChangeKey struct{}

// withPathChange marks ctx as belonging to a path-changing operation.
// The mark lives and dies with the derived context, so every return path of the
// caller clears it.
func withPathChange(ctx context.Context) context.Context {
	return context.WithValue(ctx, pathChangeKey{}, true)
}

// InPathChange reports whether ctx belongs to a rename transaction in flight.
func InPathChange(ctx context.Context) bool {
	v, _ := ctx.Value(pathChangeKey{}).(bool)
	return v
}

// NoticeHandler adapts fn into a stage listener that drops the notices a rename
// causes itself. Those changes reach observers once, through the rename event.
func NoticeHandler(fn func(context.Context, *domain.ChangeNotice)) ports.ChangeListener {
	return func(ctx context.Context, notice *domain.ChangeNotice) {
		if fn == nil || InPathChange(ctx) {
			return
		}
		fn(ctx, notice)
	}
}
