package main

import "github.com/lexcodex/djangoagent/app/cmd"

func main() {
	cmd.Execute()
}
