// cmd/bmrun/main.go
package main

import (
	"bmalign/internal/appshell"
	"bmalign/internal/launch"
)

func main() { appshell.Main(launch.RunContext) }
