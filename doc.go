/*
Package mayausd renames prims on a layered scene-description stage, as undoable commands.

A stage is an ordered stack of layers, strongest first. Each layer is a sparse
overlay of path-keyed prim specs. Renaming a prim moves its spec subtree to a new
name under the same parent, inside the single layer that defines it.

# Concept

A rename is only attempted when it is well defined: the prim must be defined in
some layer, the current edit target must hold an opinion on it, and no other
layer may hold one. Otherwise construction fails with a *domain.RenameError that
names the implicated layers, and nothing is mutated.

The rename itself is a copy-then-remove transaction pinned to that layer. Removing
the source retires every handle to it, so a fresh Item is minted at the new path
and delivered to subscribers in exactly one rename event.

# Usage

	stage, err := memory.NewStage(layer)
	if err != nil {
		log.Fatal(err)
	}

	editor := mayausd.New(stage)
	defer editor.Close()

	item, err := editor.RenamePath(ctx, "/World/Cube", "Box")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(item.Path) // /World/Box

	// Back to /World/Cube.
	restored, err := editor.Undo(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(restored[0].Path) // /World/Cube
*/
package mayausd
