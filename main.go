package main

import (
	"os"

	"github.com/supplyconnect/supplyconnect/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
