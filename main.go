// Package main is the entry point for the pbpinsights CLI tool, which analyzes
// basketball play-by-play dumps for runs, comebacks and clutch performance.
package main

import "github.com/pable/go-pbp-insights/cmd"

func main() {
	cmd.Execute()
}
