package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hitoshi/classmate/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "classmate: %v\n", err)
		os.Exit(1)
	}
}
