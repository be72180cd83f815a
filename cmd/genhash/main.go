// cmd/genhash/main.go: prints the bcrypt hash of a password, for manual seeding.
// Usage: go run ./cmd/genhash <password>
package main

import (
	"fmt"
	"os"

	"pastel24h/internal/service"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash <password>")
		os.Exit(2)
	}
	h, err := service.HashPassword(os.Args[1])
	if err != nil {
		panic(err)
	}
	fmt.Println(h)
}
