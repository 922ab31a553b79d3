package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/admatcher/internal/config"
	"github.com/patrickwarner/admatcher/internal/db"
	"github.com/patrickwarner/admatcher/internal/logic"
	"github.com/patrickwarner/admatcher/internal/models"
	"github.com/patrickwarner/admatcher/internal/observability"
)

var (
	adCount       = flag.Int("ads", 50, "number of ads")
	userCount     = flag.Int("users", 200, "number of users with stored history")
	nationList    = flag.String("nations", "kr,us,jp", "comma separated nations")
	valuesPerAd   = flag.Int("values", 6, "feature values indexed per ad and nation")
	pids          = flag.Int("pids", 5, "number of placement ids")
	withPostgres  = flag.Bool("postgres", false, "also upsert ads into the postgres catalogue")
	seed          = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	skipReload    = flag.Bool("skip-reload", false, "skip automatic reload after seeding")
	queryWords    = []string{"shoes", "golf", "camping", "laptop", "coffee", "hotel", "flight", "sneakers", "yoga", "guitar"}
	keywordWords  = []string{"sports", "travel", "tech", "food", "music", "fashion", "outdoor", "fitness"}
	browserValues = []string{"chrome", "safari", "firefox", "edge", "samsung"}
)

func main() {
	flag.Parse()

	logger, err := observability.InitLoggerWithService("seed_features")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	ctx := context.Background()

	store, err := db.InitRedis(ctx, cfg.RedisAddr, cfg.IndexMinScore, cfg.IndexLimit)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	defer store.Close()

	var pg *db.Postgres
	if *withPostgres {
		pg, err = db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		defer pg.Close()
	}

	r := rand.New(rand.NewSource(*seed))
	nations := strings.Split(*nationList, ",")

	ads := make([]string, *adCount)
	for i := range ads {
		ads[i] = fmt.Sprintf("ad-%04d", i+1)
	}
	if err := store.AddToUniverse(ctx, ads...); err != nil {
		logger.Fatal("add universe", zap.Error(err))
	}
	if pg != nil {
		for _, id := range ads {
			if err := pg.UpsertAd(ctx, id, "Ad "+id, true); err != nil {
				logger.Fatal("upsert ad", zap.Error(err), zap.String("adid", id))
			}
		}
	}

	indexed := 0
	for _, nation := range nations {
		for _, adID := range ads {
			for v := 0; v < *valuesPerAd; v++ {
				ft, value := randomFeature(r)
				if err := store.IndexCandidate(ctx, nation, ft, value, adID, float64(r.Intn(1000))); err != nil {
					logger.Fatal("index candidate", zap.Error(err))
				}
				stats := map[string]string{logic.StatImpCTR: randomCTR(r)}
				if err := store.PutStatistic(ctx, nation, ft, value, adID, stats); err != nil {
					logger.Fatal("put statistic", zap.Error(err))
				}
				indexed++
			}
		}

		for u := 0; u < *userCount; u++ {
			uid := fmt.Sprintf("user-%05d", u+1)
			for _, ft := range models.HistoryFeatureTypes {
				if err := store.PutUserHistory(ctx, uid, nation, ft, randomHistory(r, ft)); err != nil {
					logger.Fatal("put history", zap.Error(err))
				}
			}
		}
	}

	fmt.Printf("seeded %d ads, %d index entries, %d users per nation\n", len(ads), indexed, *userCount)

	if !*skipReload {
		if err := callReloadEndpoint(&cfg); err != nil {
			logger.Error("reload endpoint failed", zap.Error(err))
			fmt.Fprintf(os.Stderr, "Warning: failed to reload server universe: %v\n", err)
		} else {
			fmt.Println("server universe reloaded")
		}
	}
}

func randomFeature(r *rand.Rand) (models.FeatureType, string) {
	switch r.Intn(7) {
	case 0:
		return models.FeatureQuery, queryWords[r.Intn(len(queryWords))]
	case 1:
		return models.FeatureKeyword, keywordWords[r.Intn(len(keywordWords))]
	case 2:
		return models.FeatureQueryLength, strconv.Itoa(3 + r.Intn(10))
	case 3:
		return models.FeatureQueryWordCount, strconv.Itoa(1 + r.Intn(4))
	case 4:
		return models.FeaturePID, fmt.Sprintf("pid-%d", 1+r.Intn(*pids))
	case 5:
		return models.FeatureBrowser, browserValues[r.Intn(len(browserValues))]
	default:
		switch r.Intn(3) {
		case 0:
			return models.FeatureTime, []string{models.AM, models.PM}[r.Intn(2)]
		case 1:
			return models.FeatureTime, strconv.Itoa(r.Intn(24))
		default:
			return models.FeatureTime, []string{models.Work, models.Vacation}[r.Intn(2)]
		}
	}
}

// randomCTR returns an impression CTR with four decimal places.
func randomCTR(r *rand.Rand) string {
	return fmt.Sprintf("0.%04d", r.Intn(2000))
}

func randomHistory(r *rand.Rand, ft models.FeatureType) map[string]string {
	out := make(map[string]string)
	n := 1 + r.Intn(3)
	for i := 0; i < n; i++ {
		var v string
		switch ft {
		case models.FeatureQuery:
			v = queryWords[r.Intn(len(queryWords))]
		case models.FeatureKeyword:
			v = keywordWords[r.Intn(len(keywordWords))]
		case models.FeatureQueryLength:
			v = strconv.Itoa(3 + r.Intn(10))
		default:
			v = strconv.Itoa(1 + r.Intn(4))
		}
		out[v] = strconv.Itoa(1 + r.Intn(20))
	}
	return out
}

func callReloadEndpoint(cfg *config.Config) error {
	reloadURL := fmt.Sprintf("http://localhost:%s/reload", cfg.Port)
	req, err := http.NewRequest("POST", reloadURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
