package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickwarner/nativeads/internal/config"
	"github.com/patrickwarner/nativeads/internal/db"
	"github.com/patrickwarner/nativeads/internal/nativead"
	"github.com/patrickwarner/nativeads/internal/observability"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	server           string
	totalAds         int
	conc             int
	duration         time.Duration
	rate             float64
	jitter           float64
	clickRate        float64
	optOutRate       float64
	flickers         int
	impViews         int
	screenName       string
	pixelBase        string
	clickBase        string
	stats            bool
	flush            bool
	redisAddr        string
	debug            bool
	label            string
	stopOnKillSwitch bool
)

var logger *zap.Logger

var httpClient *http.Client

const statsInterval = 5 * time.Second

var (
	countAds         uint64
	countImpressions uint64
	countClicks      uint64
	countOptOuts     uint64
	countErrors      uint64
	countRefused     uint64
)

type viewRegistration struct {
	View string `json:"view"`
	Role string `json:"role"`
}

func main() {
	flag.StringVar(&server, "server", "http://localhost:8787", "native ad harness base URL")
	flag.IntVar(&totalAds, "ads", 200, "total ads to map")
	flag.IntVar(&conc, "concurrency", 10, "concurrent ad sessions")
	flag.DurationVar(&duration, "duration", 0, "how long to run traffic (0 to disable)")
	flag.Float64Var(&rate, "rate", 0, "ads per second (0 for unlimited)")
	flag.Float64Var(&jitter, "jitter", 0.0, "random jitter factor for session spacing")
	flag.Float64Var(&clickRate, "click-rate", 0.05, "probability of a product tap per session")
	flag.Float64Var(&optOutRate, "optout-rate", 0.01, "probability of a privacy tap per session")
	flag.IntVar(&flickers, "flickers", 3, "visible/hidden cycles per impression view")
	flag.IntVar(&impViews, "impression-views", 2, "impression views registered per ad")
	flag.StringVar(&screenName, "screen", "MainActivity", "screen resumed before traffic starts")
	flag.StringVar(&pixelBase, "pixel-base", "http://localhost:8787/health", "impression pixel URL given to every ad")
	flag.StringVar(&clickBase, "click-base", "https://shop.example.com/item", "product click URL prefix")
	flag.BoolVar(&stats, "stats", false, "print aggregated stats periodically")
	flag.BoolVar(&flush, "flush", false, "flush ad event counters from redis before sending traffic")
	flag.StringVar(&redisAddr, "redis", "", "redis address (defaults to REDIS_ADDR)")
	flag.BoolVar(&debug, "debug", false, "enable verbose debug logs")
	flag.StringVar(&label, "label", "", "label to identify this run")
	flag.BoolVar(&stopOnKillSwitch, "stop-on-kill-switch", true, "stop when the harness refuses ads")
	flag.Parse()

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	var err error
	logger, err = observability.InitLoggerWithLevel(level, "traffic-simulator")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	httpClient = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ResponseHeaderTimeout: 10 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   conc,
			MaxConnsPerHost:       50,
			IdleConnTimeout:       90 * time.Second,
		},
	}

	if label == "" {
		label = time.Now().Format(time.RFC3339)
	}

	if flush {
		flushCounters()
	}

	if err := post(context.Background(), "/screens/"+screenName+"/resume", nil, nil); err != nil {
		logger.Fatal("resume screen", zap.Error(err))
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	var rmu sync.Mutex
	chance := func(p float64) bool {
		rmu.Lock()
		defer rmu.Unlock()
		return r.Float64() < p
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, conc)
	done := make(chan struct{})
	var stop atomic.Bool

	var baseInterval time.Duration
	if rate > 0 {
		baseInterval = time.Duration(float64(time.Second) / rate)
	} else if duration > 0 && totalAds > 0 {
		baseInterval = duration / time.Duration(totalAds)
	}

	start := time.Now()
	next := start

	if stats {
		go func() {
			ticker := time.NewTicker(statsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					printStats()
				case <-done:
					printStats()
					return
				}
			}
		}()
	}

	for i := 0; !stop.Load(); i++ {
		if totalAds > 0 && i >= totalAds {
			break
		}
		if duration > 0 && time.Since(start) >= duration {
			break
		}
		if baseInterval > 0 {
			effective := baseInterval
			if jitter > 0 {
				rmu.Lock()
				jf := 1 + (r.Float64()*2-1)*jitter
				rmu.Unlock()
				if jf < 0.1 {
					jf = 0.1
				}
				effective = time.Duration(float64(effective) * jf)
			}
			now := time.Now()
			if now.Before(next) {
				time.Sleep(next.Sub(now))
			}
			next = next.Add(effective)
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			if err := runSession(ctx, i, chance); err != nil {
				if errors.Is(err, errRefused) {
					atomic.AddUint64(&countRefused, 1)
					if stopOnKillSwitch {
						stop.Store(true)
					}
					return
				}
				atomic.AddUint64(&countErrors, 1)
				logger.Error("session error", zap.Int("session", i), zap.Error(err))
			}
		}(i)
	}
	wg.Wait()
	close(done)
	if !stats {
		printStats()
	}
}

var errRefused = errors.New("harness refused ad")

// runSession maps one ad, shows its impression views and maybe taps it.
func runSession(ctx context.Context, i int, chance func(float64) bool) error {
	assets := nativead.Assets{
		Product: nativead.Product{
			Title:        fmt.Sprintf("Product %d", i),
			Description:  "Simulated native ad",
			Price:        fmt.Sprintf("$%d.99", i%100),
			CallToAction: "Shop now",
			ImageURL:     "https://img.example.com/product.png",
			ClickURL:     fmt.Sprintf("%s/%d", strings.TrimRight(clickBase, "/"), i),
		},
		AdvertiserDomain:      "shop.example.com",
		AdvertiserDescription: "Simulated advertiser",
		AdvertiserLogoURL:     "https://img.example.com/logo.png",
		ImpressionPixels:      []string{pixelBase},
		PrivacyOptOutClickURL: "https://privacy.example.com/optout",
	}

	var ad struct {
		ID string `json:"id"`
	}
	if err := post(ctx, "/ads", assets, &ad); err != nil {
		return err
	}
	atomic.AddUint64(&countAds, 1)

	for v := 0; v < impViews; v++ {
		var reg viewRegistration
		if err := post(ctx, "/ads/"+ad.ID+"/views", viewRegistration{Role: "impression"}, &reg); err != nil {
			return err
		}
		for f := 0; f < flickers; f++ {
			if err := post(ctx, "/views/"+reg.View+"/visible", nil, nil); err != nil {
				return err
			}
			if err := post(ctx, "/views/"+reg.View+"/hidden", nil, nil); err != nil {
				return err
			}
		}
	}
	if impViews > 0 {
		atomic.AddUint64(&countImpressions, 1)
	}

	if chance(clickRate) {
		if err := tapNewView(ctx, ad.ID, "product"); err != nil {
			return err
		}
		atomic.AddUint64(&countClicks, 1)
	}
	if chance(optOutRate) {
		if err := tapNewView(ctx, ad.ID, "privacy"); err != nil {
			return err
		}
		atomic.AddUint64(&countOptOuts, 1)
	}

	logger.Debug("session", zap.Int("session", i), zap.String("ad_id", ad.ID))
	return nil
}

func tapNewView(ctx context.Context, adID, role string) error {
	var reg viewRegistration
	if err := post(ctx, "/ads/"+adID+"/views", viewRegistration{Role: role}, &reg); err != nil {
		return err
	}
	if err := post(ctx, "/views/"+reg.View+"/visible", nil, nil); err != nil {
		return err
	}
	return post(ctx, "/views/"+reg.View+"/tap", nil, nil)
}

func post(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		reader = bytes.NewReader(blob)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return errRefused
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}
	return nil
}

func flushCounters() {
	cfg := config.Load()
	addr := redisAddr
	if addr == "" {
		addr = cfg.RedisAddr
	}
	ctx := context.Background()
	store, err := db.InitRedis(ctx, addr)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	defer store.Close()

	keys, err := store.Client.Keys(ctx, "nativeads:ad:*").Result()
	if err != nil {
		logger.Error("failed to list ad counters", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		if err := store.Client.Del(ctx, keys...).Err(); err != nil {
			logger.Error("failed to delete ad counters", zap.Error(err))
			return
		}
	}
	logger.Info("redis ad counters flushed",
		zap.String("addr", addr),
		zap.Int("keys_deleted", len(keys)),
		zap.String("note", "remote config cache preserved"))
}

func printStats() {
	ads := atomic.LoadUint64(&countAds)
	clk := atomic.LoadUint64(&countClicks)
	var ctr float64
	if ads > 0 {
		ctr = float64(clk) / float64(ads)
	}
	logger.Info("stats",
		zap.String("run", label),
		zap.Uint64("ads", ads),
		zap.Uint64("impressions", atomic.LoadUint64(&countImpressions)),
		zap.Uint64("clicks", clk),
		zap.Uint64("opt_outs", atomic.LoadUint64(&countOptOuts)),
		zap.Uint64("refused", atomic.LoadUint64(&countRefused)),
		zap.Uint64("errors", atomic.LoadUint64(&countErrors)),
		zap.Float64("ctr", ctr))
}
