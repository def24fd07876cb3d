// cmd/bmalign/main.go
package main

import (
	"bmalign/internal/app"
	"bmalign/internal/appshell"
)

func main() { appshell.Main(app.RunContext) }
