package main

import (
	"github.com/MakeNowJust/heredoc"

	basecmd "go.ntppool.org/roast/cmd"
	"go.ntppool.org/roast/roastcmd"
)

func main() {
	basecmd.Run(&roastcmd.CLI{}, "roast", heredoc.Doc(`
		Deterministic per-line commentary for source files.

		The same line always gets the same verdict: a line is picked when its
		hash falls under the selection chance, and the message is picked from
		the pool by the same hash.
	`))
}
