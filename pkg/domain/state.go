package domain

// CommandState is the logical state of an undoable command.
type CommandState string

const (
	StateConstructed CommandState = "constructed" // Source restored (or never renamed)
	StateRenamed     CommandState = "renamed"     // Last successful call was execute/redo
)
