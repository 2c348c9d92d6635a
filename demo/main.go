package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"kvbench/client/logger"
	"kvbench/control/constants"
	"kvbench/demo/board"
	"kvbench/lineclient"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	listen := flag.String("listen", constants.DEFAULT_DEMO_LISTEN_ADDR, "HTTP listen address")
	storeAddr := flag.String("store", net.JoinHostPort(constants.DEFAULT_HOST, strconv.Itoa(constants.DEFAULT_PORT)), "address of the line protocol server")
	listKey := flag.String("key", constants.DEFAULT_DEMO_LIST_KEY, "list key that holds the tweets")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	demoLogger, err := logger.NewLogger("", *verbose)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer demoLogger.Close()

	client, err := lineclient.Dial(*storeAddr)
	if err != nil {
		demoLogger.Error("Failed to connect to store", zap.String("addr", *storeAddr), zap.Error(err))
		return
	}
	store := board.NewStore(client, *listKey)
	defer store.Close()

	boardServer := board.NewServer(store, demoLogger.Logger)
	httpServer := &http.Server{
		Addr:              *listen,
		Handler:           boardServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		demoLogger.Info("Tweet board listening", zap.String("addr", *listen), zap.String("store", *storeAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		// event streams never go idle on their own
		boardServer.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		demoLogger.Error("Tweet board stopped", zap.Error(err))
	}
}
