package main

import "github.com/akbarov/facegate/cmd"

func main() {
	cmd.Execute()
}
