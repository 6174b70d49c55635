package main

import "github.com/oshokin/lost-alarm/cmd/lost-alarm-server/cmd"

func main() {
	cmd.Execute()
}
