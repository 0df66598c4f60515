package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/services/logger"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/storage/tokenstore"
)

func main() {
	os.Exit(run())
}

func run() int {
	std := log.New(os.Stderr, "ALUMNI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		std.Printf("error: %s\n", err)
		return 1
	}
	logger := logsvc.NewRollbarLogger(std, conf)
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := tokenstore.Open(ctx, conf.TokenStore)
	if err != nil {
		logger.Error("opening token store", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	cli := newCommandLine(conf, logger, store, os.Stdin, os.Stdout)
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", userMessage(err))
		}
		return 1
	}
	return 0
}
