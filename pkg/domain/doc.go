/*
Package domain contains the core scene-description types shared by the stage,
the rename command and every adapter.

It is kept free of I/O and persistence, following the hexagonal layout used by
the rest of the module.

# Key Entities

  - Path: an absolute prim path such as "/World/Cube".
  - PrimSpec: the opinion one layer authors for one prim.
  - LayerData / LayerInfo: a layer's sparse path-keyed specs and its identity.
  - Item / PrimRef: a generation-stamped handle that goes stale once the prim it
    points to is removed or recreated.
  - RenameError: the tagged precondition failure of a rename.
  - RenameEvent, ChangeNotice, CommandEvent: notifications and hook payloads.
*/
package domain
