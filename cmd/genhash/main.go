// cmd/genhash prints the bcrypt hash of a PIN, for seeding operators by SQL.
// Usage: go run ./cmd/genhash 1234
package main

import (
	"fmt"
	"os"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash <pin>")
		os.Exit(2)
	}
	h, err := service.HashPin(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(h)
}
