package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"wisdombot/internal/app"
)

func main() {
	var (
		cfgPath string
		once    bool
		message string
	)
	flag.StringVar(&cfgPath, "config", "", "path to config json/yaml (optional; environment variables always apply)")
	flag.BoolVar(&once, "once", false, "run one broadcast, print the result and exit")
	flag.StringVar(&message, "message", "", "override message for -once")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	if once {
		os.Exit(runOnce(ctx, a, message))
	}

	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}

	reason := a.Wait(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.ShutdownTimeout()+5*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)

	if reason == app.StopFatalError {
		fmt.Fprintln(os.Stderr, "fatal:", a.Err())
		stopCancel()
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, a *app.App, override string) int {
	defer a.Stop(context.Background(), app.StopAppStop)

	res, err := a.Dispatcher().Dispatch(ctx, override)
	if err != nil {
		fmt.Fprintln(os.Stderr, "broadcast failed:", err)
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(res)
	return 0
}
