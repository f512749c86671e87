package main

import "webinstall/cli"

func main() {
	cli.Run()
}
