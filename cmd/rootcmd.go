package rootcmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.ntppool.org/common/logger"
)

// Run parses the command line into cmd and runs the selected command.
// cmd is bound so commands can take it as a Run argument.
func Run(cmd any, name, description string) {
	ctx := logger.NewContext(context.Background(), logger.Setup())
	ctx, cancel := signal.NotifyContext(ctx,
		os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	parser, err := kong.New(cmd,
		kong.Name(name),
		kong.Description(description),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(cmd),
		kong.ConfigureHelp(kong.HelpOptions{
			Tree: true,
		}),
		kong.UsageOnError(),
	)
	if err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.FatalIfErrorf(err)
	}

	err = kctx.Run()
	parser.FatalIfErrorf(err)
}
