// Package runtime holds the rename core: the validating constructor, the
// copy-then-remove transaction, handle rebinding and the path-change guard, plus
// the undo history that drives commands.
package runtime
