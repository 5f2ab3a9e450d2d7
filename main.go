package main

import "github.com/pders01/scantrack/cmd"

func main() {
	cmd.Execute()
}
