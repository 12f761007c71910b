/*
Package session manages named editing sessions over persisted layers.

A session is an Editor opened on a layer stack loaded from a LayerStore. The
Manager serializes access per session, optionally across replicas through a
distributed locker, and writes layers back to the store on Save.
*/
package session
