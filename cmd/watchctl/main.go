// watchctl is the admin CLI for the watcher's state store: it manages
// the tracked-collection watchlist and per-user price alerts.
//
// Usage:
//
//	watchctl [-config path] collections list
//	watchctl [-config path] collections add <symbol>
//	watchctl [-config path] collections remove <symbol>
//	watchctl [-config path] alerts list <user>
//	watchctl [-config path] alerts add <user> <symbol> <target-price>
//	watchctl [-config path] alerts remove <user> <symbol>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/nftwatch/mewatch/internal/alerts"
	"github.com/nftwatch/mewatch/internal/config"
	"github.com/nftwatch/mewatch/internal/ledger"
	"github.com/nftwatch/mewatch/internal/seencache"
	"github.com/nftwatch/mewatch/internal/store/postgres"
	"github.com/nftwatch/mewatch/internal/watchlist"
	"github.com/nftwatch/mewatch/internal/watermark"
)

func main() {
	configPath := flag.String("config", "configs/watcher.local.yaml", "path to config file")
	flag.Parse()

	godotenv.Load()

	args := flag.Args()
	if len(args) < 2 {
		usage()
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	ctx := context.Background()
	kv, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		fatalf("connect state store: %v", err)
	}
	defer kv.Close()

	marks := watermark.New(kv)
	book := ledger.New(kv, cfg.Ledger.Cooldown)
	seen := seencache.NewStore(kv)
	registry := watchlist.NewRegistry(kv, marks, book, seen)
	alertMgr := alerts.NewManager(kv)

	switch args[0] {
	case "collections":
		runCollections(ctx, registry, args[1:])
	case "alerts":
		runAlerts(ctx, alertMgr, args[1:])
	default:
		usage()
	}
}

func runCollections(ctx context.Context, registry *watchlist.Registry, args []string) {
	switch args[0] {
	case "list":
		symbols, err := registry.List(ctx)
		if err != nil {
			fatalf("list collections: %v", err)
		}
		if len(symbols) == 0 {
			fmt.Println("no collections are tracked")
			return
		}
		for _, s := range symbols {
			fmt.Println(s)
		}

	case "add":
		if len(args) < 2 {
			usage()
		}
		symbol, err := registry.Add(ctx, args[1])
		if errors.Is(err, watchlist.ErrAlreadyTracked) {
			fmt.Printf("%s is already tracked\n", symbol)
			return
		}
		if err != nil {
			fatalf("add collection: %v", err)
		}
		fmt.Printf("%s added\n", symbol)

	case "remove":
		if len(args) < 2 {
			usage()
		}
		err := registry.Remove(ctx, args[1])
		if errors.Is(err, watchlist.ErrNotTracked) {
			fmt.Printf("%s is not tracked\n", watchlist.Normalize(args[1]))
			return
		}
		if err != nil {
			fatalf("remove collection: %v", err)
		}
		fmt.Printf("%s removed\n", watchlist.Normalize(args[1]))

	default:
		usage()
	}
}

func runAlerts(ctx context.Context, mgr *alerts.Manager, args []string) {
	switch args[0] {
	case "list":
		if len(args) < 2 {
			usage()
		}
		list, err := mgr.List(ctx, args[1])
		if err != nil {
			fatalf("list alerts: %v", err)
		}
		if len(list) == 0 {
			fmt.Println("no alerts")
			return
		}
		for _, a := range list {
			fmt.Printf("%s <= %g SOL\n", a.Collection, a.TargetPrice)
		}

	case "add":
		if len(args) < 4 {
			usage()
		}
		target, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			fatalf("invalid target price %q", args[3])
		}
		symbol := watchlist.Normalize(args[2])
		err = mgr.Add(ctx, args[1], symbol, target)
		if errors.Is(err, alerts.ErrDuplicateAlert) {
			fmt.Printf("alert for %s already exists\n", symbol)
			return
		}
		if err != nil {
			fatalf("add alert: %v", err)
		}
		fmt.Printf("alert added: %s <= %g SOL\n", symbol, target)

	case "remove":
		if len(args) < 3 {
			usage()
		}
		symbol := watchlist.Normalize(args[2])
		err := mgr.Remove(ctx, args[1], symbol)
		if errors.Is(err, alerts.ErrAlertNotFound) {
			fmt.Printf("no alert for %s\n", symbol)
			return
		}
		if err != nil {
			fatalf("remove alert: %v", err)
		}
		fmt.Printf("alert removed: %s\n", symbol)

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  watchctl [-config path] collections list
  watchctl [-config path] collections add <symbol>
  watchctl [-config path] collections remove <symbol>
  watchctl [-config path] alerts list <user>
  watchctl [-config path] alerts add <user> <symbol> <target-price>
  watchctl [-config path] alerts remove <user> <symbol>`)
	os.Exit(2)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
