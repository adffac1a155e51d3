// Command staticd serves files from a directory over a small subset of HTTP/1.1.
//
//	staticd [port] [root] [flags]
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
