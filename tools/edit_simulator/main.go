package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/patrickwarner/bidderadmin/internal/config"
	"github.com/patrickwarner/bidderadmin/internal/db"
	"github.com/patrickwarner/bidderadmin/internal/observability"
)

var (
	server    string
	totalReq  int
	conc      int
	duration  time.Duration
	rate      float64
	jitter    float64
	stats     bool
	watch     bool
	redisAddr string
	debug     bool
	label     string
	key       string
)

var logger *zap.Logger

var httpClient *http.Client

const statsInterval = 5 * time.Second

var (
	countSent     uint64
	countSuccess  uint64
	countSkipped  uint64
	countErrors   uint64
	countReceived uint64
)

type cell struct {
	Present        bool   `json:"present"`
	BidderConfigID int    `json:"bidder_config_id"`
	Text           string `json:"text"`
}

type matrixResponse struct {
	Geo    string `json:"geo"`
	Device string `json:"device"`
	Matrix struct {
		Rows []struct {
			Key   string `json:"key"`
			Cells []cell `json:"cells"`
		} `json:"rows"`
	} `json:"matrix"`
}

func main() {
	flag.StringVar(&server, "server", "http://localhost:8787", "bidder admin base URL")
	flag.IntVar(&totalReq, "requests", 100, "total edits to send")
	flag.IntVar(&conc, "concurrency", 4, "concurrent editors")
	flag.DurationVar(&duration, "duration", 0, "how long to run (0 to disable)")
	flag.Float64Var(&rate, "rate", 0, "edits per second (0 for unlimited)")
	flag.Float64Var(&jitter, "jitter", 0.0, "random jitter factor for edit spacing")
	flag.BoolVar(&stats, "stats", false, "print aggregated stats periodically")
	flag.BoolVar(&watch, "watch", false, "count update messages received on redis")
	flag.StringVar(&redisAddr, "redis", "", "redis address (defaults to REDIS_ADDR)")
	flag.BoolVar(&debug, "debug", false, "enable verbose debug logs")
	flag.StringVar(&label, "label", "", "label to identify this run")
	flag.StringVar(&key, "key", "simEdit", "param key written by the simulator")
	flag.Parse()

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	var err error
	logger, err = observability.InitLoggerWithLevel(level, "edit-simulator")
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
			MaxIdleConnsPerHost:   10,
			MaxConnsPerHost:       50,
			IdleConnTimeout:       90 * time.Second,
		},
	}

	if label == "" {
		label = time.Now().Format(time.RFC3339)
	}
	server = strings.TrimRight(server, "/")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if watch {
		addr := redisAddr
		if addr == "" {
			addr = config.Load().RedisAddr
		}
		notifier, err := db.InitRedis(ctx, addr)
		if err != nil {
			logger.Fatal("redis connect", zap.Error(err))
		}
		defer notifier.Close()
		sub := notifier.Client.Subscribe(ctx, db.BidderConfigUpdateChannel)
		defer func() { _ = sub.Close() }()
		if _, err := sub.Receive(ctx); err != nil {
			logger.Fatal("redis subscribe", zap.Error(err))
		}
		go func() {
			for m := range sub.Channel() {
				var msg db.UpdateMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					logger.Warn("bad update message", zap.Error(err))
					continue
				}
				atomic.AddUint64(&countReceived, 1)
				logger.Debug("update received", zap.String("action", msg.Action), zap.Int("bidder_config_id", msg.BidderConfigID))
			}
		}()
	}

	bidders, err := listBidders(ctx)
	if err != nil {
		logger.Fatal("list bidders", zap.Error(err))
	}
	if len(bidders) == 0 {
		logger.Fatal("no bidders to edit; run seed_configs first")
	}

	var rngMu sync.Mutex
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	pick := func(n int) int {
		rngMu.Lock()
		defer rngMu.Unlock()
		return r.Intn(n)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, conc)
	done := make(chan struct{})

	var baseInterval time.Duration
	if rate > 0 {
		baseInterval = time.Duration(float64(time.Second) / rate)
	} else if duration > 0 && totalReq > 0 {
		baseInterval = duration / time.Duration(totalReq)
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

	for i := 0; ; i++ {
		if totalReq > 0 && i >= totalReq {
			break
		}
		if duration > 0 && time.Since(start) >= duration {
			break
		}
		if baseInterval > 0 {
			effective := baseInterval
			if jitter > 0 {
				rngMu.Lock()
				jf := 1 + (r.Float64()*2-1)*jitter
				rngMu.Unlock()
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
			atomic.AddUint64(&countSent, 1)

			bidder := bidders[pick(len(bidders))]
			m, err := bidderMatrix(ctx, bidder)
			if err != nil {
				atomic.AddUint64(&countErrors, 1)
				logger.Error("matrix request error", zap.String("bidder", bidder), zap.Error(err))
				return
			}
			cells := presentCells(m)
			if len(cells) == 0 {
				atomic.AddUint64(&countSkipped, 1)
				logger.Debug("no cells", zap.String("bidder", bidder), zap.String("geo", m.Geo), zap.String("device", m.Device))
				return
			}
			c := cells[pick(len(cells))]
			text := bumpText(c.Text, key, i)
			if err := saveParams(ctx, c.BidderConfigID, text); err != nil {
				atomic.AddUint64(&countErrors, 1)
				logger.Error("save error", zap.Int("bidder_config_id", c.BidderConfigID), zap.Error(err))
				return
			}
			atomic.AddUint64(&countSuccess, 1)
			logger.Debug("edit", zap.String("bidder", bidder), zap.Int("bidder_config_id", c.BidderConfigID))
		}(i)
	}
	wg.Wait()
	if watch {
		// give the last notifications a moment to arrive
		time.Sleep(500 * time.Millisecond)
	}
	close(done)
	if !stats {
		printStats()
	}
}

func getJSON(ctx context.Context, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server+path, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func listBidders(ctx context.Context) ([]string, error) {
	var out struct {
		Bidders []string `json:"bidders"`
	}
	if err := getJSON(ctx, "/api/bidders", &out); err != nil {
		return nil, err
	}
	return out.Bidders, nil
}

func bidderMatrix(ctx context.Context, bidder string) (matrixResponse, error) {
	var out matrixResponse
	err := getJSON(ctx, "/api/bidders/"+url.PathEscape(bidder)+"/matrix", &out)
	return out, err
}

func saveParams(ctx context.Context, id int, text string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/api/bidder_configs/%d/params", server, id), strings.NewReader(text))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func printStats() {
	sent := atomic.LoadUint64(&countSent)
	succ := atomic.LoadUint64(&countSuccess)
	skip := atomic.LoadUint64(&countSkipped)
	errs := atomic.LoadUint64(&countErrors)
	recv := atomic.LoadUint64(&countReceived)
	fields := []zap.Field{
		zap.String("run", label),
		zap.Uint64("sent", sent),
		zap.Uint64("success", succ),
		zap.Uint64("skipped", skip),
		zap.Uint64("errors", errs),
	}
	if watch {
		fields = append(fields, zap.Uint64("notifications_received", recv))
	}
	logger.Info("stats", fields...)
}
