// Copyright © 2024 The Expreva authors

package main

import "github.com/expreva/expreva/cmd"

func main() {
	cmd.Execute()
}
