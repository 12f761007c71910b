/*
Package ports defines the driven ports (interfaces) the rename core depends on.

These interfaces decouple the command from the layered store, the handle factory,
the notification transport and persistence, so each can be swapped for tests or
other backends.

# Key Interfaces

  - Stage: the layered scene-description store (opinions, copy, remove, edit target).
  - ItemFactory: mints fresh Items after a rename invalidates the old ones.
  - Notifier: delivers rename notifications to observers.
  - UndoableCommand: the execute/undo/redo contract driven by a history manager.
  - LayerStore: persists layers between sessions.
  - DistributedLocker: coordinates edits to one stage across replicas.
*/
package ports
