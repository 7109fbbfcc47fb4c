package main

// Kept minimal so that the aggregator can be imported and executed elsewhere.
// Main content of the CLI is in cmd/aggregator/aggregator.go.

import "github.com/livepeer/sensor-data/cmd/aggregator"

// Version content of this constant will be set at build time,
// using -ldflags, using output of the `git describe` command.
var Version = "undefined"

func main() {
	aggregator.Run(aggregator.BuildFlags{
		Version: Version,
	})
}
