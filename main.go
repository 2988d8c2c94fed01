package main

import (
	"os"

	"docseek/app"
)

func main() {
	os.Exit(app.Run())
}
