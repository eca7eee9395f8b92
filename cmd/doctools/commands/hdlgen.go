package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/doctools/internal/hdlgen"
)

// HDLGenCmd implements the 'hdl-gen' command.
type HDLGenCmd struct {
	Input string `short:"i" name:"input" default:"." help:"Path inside the HDL repository."`
}

func (h *HDLGenCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rep, err := hdlgen.Run(ctx, hdlgen.Options{Input: h.Input, HDL: cfg.HDL, Now: time.Now()})
	if err != nil {
		return err
	}
	for _, w := range rep.Written {
		fmt.Fprintln(os.Stdout, w)
	}
	return nil
}
