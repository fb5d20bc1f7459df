package main

import "gymtrack/process/inbox"

func main() {
	inbox.Run()
}
