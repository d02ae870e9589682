package main

import (
	"fmt"
	"os"

	"studymatcher/cmd/cli/root"

	_ "studymatcher/cmd/cli/courses"
	_ "studymatcher/cmd/cli/matches"
	_ "studymatcher/cmd/cli/users"
)

func main() {
	// Execute the root Cobra command
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
