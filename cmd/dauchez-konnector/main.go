package main

import "dauchez-konnector/cmd/dauchez-konnector/cmd"

func main() {
	cmd.Execute()
}
