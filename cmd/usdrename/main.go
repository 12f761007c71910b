// Command usdrename renames prims in layered scene descriptions.
package main

func main() {
	Execute()
}
