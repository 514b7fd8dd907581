package main

import "github.com/ValentinKolb/expmap/cmd"

func main() {
	cmd.Execute()
}
