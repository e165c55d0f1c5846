package roastcmd

import (
	"context"
	"fmt"

	"go.ntppool.org/common/version"
	"gopkg.in/yaml.v3"

	"go.ntppool.org/roast/session"
)

type explainCmd struct {
	Line    string `arg:"" help:"Line of text"`
	Context string `name:"context" default:"text" help:"Context identifier (filetype)"`
}

type messagesCmd struct{}

type configCmd struct{}

type versionCmd struct{}

func (cmd *explainCmd) Run(cli *CLI) error {
	cfg := cli.store.Config()
	rec := session.Evaluate(cmd.Line, cmd.Context, cfg)

	w := cli.stdout()
	fmt.Fprintf(w, "trimmed:   %q\n", rec.Trimmed)
	fmt.Fprintf(w, "eligible:  %t\n", rec.Eligible)
	if !rec.Eligible {
		return nil
	}
	fmt.Fprintf(w, "hash:      %016x\n", uint64(rec.Hash))
	fmt.Fprintf(w, "selection: %d (chance %d)\n", rec.Hash.SelectionHalf()%100, cfg.SelectionChance)
	fmt.Fprintf(w, "selected:  %t\n", rec.Selected)
	if rec.Selected {
		fmt.Fprintf(w, "message:   %s\n", rec.Message)
	}
	return nil
}

func (cmd *messagesCmd) Run(cli *CLI) error {
	w := cli.stdout()
	for i, m := range cli.store.Config().Messages {
		fmt.Fprintf(w, "%3d  %s\n", i+1, m)
	}
	return nil
}

func (cmd *configCmd) Run(cli *CLI) error {
	enc := yaml.NewEncoder(cli.stdout())
	enc.SetIndent(2)
	if err := enc.Encode(cli.store.Config()); err != nil {
		return err
	}
	return enc.Close()
}

func (cmd *versionCmd) Run(ctx context.Context, cli *CLI) error {
	_, err := fmt.Fprintf(cli.stdout(), "roast %s\n", version.Version())
	return err
}
