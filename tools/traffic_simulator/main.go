package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/patrickwarner/admatcher/internal/models"
	"github.com/patrickwarner/admatcher/internal/observability"
)

var (
	server     string
	users      int
	nationCSV  string
	pidCount   int
	totalReq   int
	conc       int
	duration   time.Duration
	rate       float64
	jitter     float64
	stats      bool
	debug      bool
	label      string
	withBucket bool
)

var logger *zap.Logger

var httpClient *http.Client

var userAgents = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 12; Pixel 6 Pro) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.5735.196 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 11; SAMSUNG SM-G991B) AppleWebKit/537.36 (KHTML, like Gecko) SamsungBrowser/15.0 Chrome/94.0.4606.61 Mobile Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_3_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:111.0) Gecko/20100101 Firefox/111.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36 Edg/122.0.2365.66",
}

const statsInterval = 5 * time.Second

var (
	countSent        uint64
	countDecision    uint64
	countExplore     uint64
	countNoCandidate uint64
	countErrors      uint64
)

func main() {
	flag.StringVar(&server, "server", "http://localhost:8787", "matcher base URL")
	flag.IntVar(&users, "users", 200, "number of unique users (matches seed_features user ids)")
	flag.StringVar(&nationCSV, "nations", "kr,us,jp", "comma-separated nations")
	flag.IntVar(&pidCount, "pids", 5, "number of placement ids")
	flag.IntVar(&totalReq, "requests", 1000, "total requests to send")
	flag.IntVar(&conc, "concurrency", 20, "concurrent requests")
	flag.DurationVar(&duration, "duration", 0, "how long to run traffic (0 to disable)")
	flag.Float64Var(&rate, "rate", 0, "requests per second (0 for unlimited)")
	flag.Float64Var(&jitter, "jitter", 0.0, "random jitter factor for request spacing")
	flag.BoolVar(&stats, "stats", false, "print aggregated stats periodically")
	flag.BoolVar(&debug, "debug", false, "enable verbose debug logs")
	flag.StringVar(&label, "label", "", "label to identify this run")
	flag.BoolVar(&withBucket, "client-time", false, "send time buckets from the client clock")
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
	nations := strings.Split(nationCSV, ",")
	for i := range nations {
		nations[i] = strings.TrimSpace(nations[i])
	}

	var mu sync.Mutex
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
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
				jf := 1 + (r.Float64()*2-1)*jitter
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

		mu.Lock()
		req := models.RequestFeatures{
			ReqID:     "req_" + strconv.FormatUint(r.Uint64(), 36),
			UID:       fmt.Sprintf("user-%05d", 1+r.Intn(users)),
			Nation:    nations[r.Intn(len(nations))],
			PID:       fmt.Sprintf("pid-%d", 1+r.Intn(pidCount)),
			UserAgent: userAgents[r.Intn(len(userAgents))],
		}
		mu.Unlock()
		if withBucket {
			now := time.Now()
			req.Hour = strconv.Itoa(now.Hour())
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			sendMatch(req)
		}()
	}
	wg.Wait()
	close(done)
	if !stats {
		printStats()
	}
}

func sendMatch(req models.RequestFeatures) {
	atomic.AddUint64(&countSent, 1)
	blob, err := json.Marshal(req)
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("marshal error", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/match", bytes.NewReader(blob))
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("request build error", zap.Error(err))
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("match request error", zap.Error(err))
		return
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("read body error", zap.Error(err))
		return
	}

	switch resp.StatusCode {
	case http.StatusNoContent:
		atomic.AddUint64(&countNoCandidate, 1)
		logger.Debug("no candidate", zap.String("reqid", req.ReqID))
		return
	case http.StatusOK:
	default:
		atomic.AddUint64(&countErrors, 1)
		logger.Error("unexpected status", zap.Int("status", resp.StatusCode), zap.String("body", strings.TrimSpace(string(body))))
		return
	}

	var res models.MatchResult
	if err := json.Unmarshal(body, &res); err != nil {
		atomic.AddUint64(&countErrors, 1)
		logger.Error("decode error", zap.Error(err), zap.String("body", strings.TrimSpace(string(body))))
		return
	}
	if res.Tag == models.TagExplore {
		atomic.AddUint64(&countExplore, 1)
	} else {
		atomic.AddUint64(&countDecision, 1)
	}
	logger.Debug("match", zap.String("reqid", req.ReqID), zap.String("uid", req.UID), zap.String("adid", res.AdID), zap.String("tag", string(res.Tag)))
}

func printStats() {
	logger.Info("stats",
		zap.String("run", label),
		zap.Uint64("sent", atomic.LoadUint64(&countSent)),
		zap.Uint64("decision", atomic.LoadUint64(&countDecision)),
		zap.Uint64("explore", atomic.LoadUint64(&countExplore)),
		zap.Uint64("no_candidate", atomic.LoadUint64(&countNoCandidate)),
		zap.Uint64("errors", atomic.LoadUint64(&countErrors)))
}
