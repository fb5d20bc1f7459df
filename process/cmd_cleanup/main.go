package main

import "gymtrack/process/sanitize"

func main() {
	sanitize.Run()
}
