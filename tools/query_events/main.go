package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/patrickwarner/nativeads/internal/config"
	"github.com/patrickwarner/nativeads/internal/db"
	"github.com/patrickwarner/nativeads/internal/observability"
	"github.com/patrickwarner/nativeads/internal/remoteconfig"
)

type adEvents struct {
	AdID        string `json:"ad_id"`
	Impressions int64  `json:"impressions"`
	Clicks      int64  `json:"clicks"`
}

func main() {
	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var id string
	var addr string
	var showConfig bool
	flag.StringVar(&id, "id", "", "native ad ID")
	flag.StringVar(&addr, "redis", "", "redis address (defaults to REDIS_ADDR)")
	flag.BoolVar(&showConfig, "remote-config", false, "print the cached remote configuration instead")
	flag.Parse()

	if id == "" && !showConfig {
		fmt.Fprintln(os.Stderr, "id or -remote-config required")
		os.Exit(1)
	}
	if addr == "" {
		addr = config.Load().RedisAddr
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := db.InitRedis(ctx, addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect redis: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var out any
	if showConfig {
		raw, err := store.LoadRemoteConfig(ctx)
		if errors.Is(err, db.ErrCacheMiss) {
			fmt.Fprintln(os.Stderr, "no cached remote config")
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "load remote config: %v\n", err)
			os.Exit(1)
		}
		resp, err := remoteconfig.Decode(bytes.NewReader(raw))
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode remote config: %v\n", err)
			os.Exit(1)
		}
		out = resp
	} else {
		imps, clicks, err := store.GetAdEventCounts(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read ad events: %v\n", err)
			os.Exit(1)
		}
		out = adEvents{AdID: id, Impressions: imps, Clicks: clicks}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
