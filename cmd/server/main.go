package main

import "github.com/auyylaso/Valthrun/server"

func main() {
	server.Main()
}
