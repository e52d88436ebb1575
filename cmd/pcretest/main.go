// Command pcretest compiles a pattern and runs it against subjects with
// either matcher, prints pattern information, or generates Go source that
// embeds a compiled pattern.
package main

import (
	"os"

	"github.com/golang/glog"

	"github.com/coregx/pcre/cmd/pcretest/command"
)

func main() {
	defer glog.Flush()
	if err := command.New().Execute(); err != nil {
		glog.Flush()
		os.Exit(1)
	}
}
