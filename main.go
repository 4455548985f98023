package main

import "github.com/litetable/widecolumn/cmd"

func main() {
	cmd.Execute()
}
