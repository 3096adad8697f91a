// ./main.go
package main

import (
	"github.com/hyhfish/playwright-mcp/cmd"
)

func main() {
	cmd.Execute()
}
