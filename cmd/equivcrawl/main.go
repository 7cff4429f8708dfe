package main

import (
	"context"
	"equivcrawl/cmd/equivcrawl/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
