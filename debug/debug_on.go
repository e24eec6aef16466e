//go:build debug

package debug

import "fmt"

// Debug is set through the debug build tag.
const Debug = true

func init() {
	fmt.Println("WARNING -- DEBUG FLAG IS ON")
}
