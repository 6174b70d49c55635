package main

import "github.com/oshokin/lost-alarm/cmd/lost-alarm-notify/cmd"

func main() {
	cmd.Execute()
}
