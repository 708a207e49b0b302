// Command eventbus boots the bus stack from config and exercises it.
//
//	eventbus demo --config ./configs
//	eventbus bench --workers 8 --events 100000 --metrics
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
