package main

import "github.com/oshokin/lost-alarm/cmd/lost-alarm-checker/cmd"

func main() {
	cmd.Execute()
}
