package main

import "property-portal/cmd"

func main() {
	cmd.Execute()
}
