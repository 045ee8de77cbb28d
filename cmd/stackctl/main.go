// Command stackctl manages stacked git branches: restacking, syncing with
// trunk, moving/inserting branches within a stack, and submitting a stack as
// a chain of pull requests with an auto-maintained visualization in each
// description.
package main

import (
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errConflict) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	logrus.SetLevel(logrus.WarnLevel)
	if os.Getenv("STACKCTL_DEBUG") != "" {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
