package main

import "go.eeprom/internal/cli"

func main() {
	cli.Execute()
}
