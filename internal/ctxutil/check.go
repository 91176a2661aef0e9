// Package ctxutil holds small context helpers shared by the stores and the
// coordinator.
package ctxutil

import "context"

// Canceled reports whether ctx is done, returning its error (Canceled or
// DeadlineExceeded) when it is and nil otherwise. Store operations call this
// at entry so a canceled caller never touches the filesystem.
//
// ctx.Err() is already nil while Done is open, so no select is needed.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
