package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/bidderadmin/internal/config"
	"github.com/patrickwarner/bidderadmin/internal/db"
	"github.com/patrickwarner/bidderadmin/internal/models"
	"github.com/patrickwarner/bidderadmin/internal/observability"
)

var (
	envs      = flag.String("envs", "prod,staging", "comma separated environment codes")
	geos      = flag.String("geos", "uk,us,de", "comma separated geo codes")
	devices   = flag.String("devices", "mobile,desktop", "comma separated device codes")
	pageTypes = flag.String("page-types", "index,section,article", "comma separated page type codes")
	slots     = flag.String("slots", "top,mpu,sidebar", "comma separated slot codes")
	bidders   = flag.String("bidders", "appnexus,rubicon,ix,pubmatic", "comma separated bidder codes")
	coverage  = flag.Float64("coverage", 0.7, "probability that a bidder is mapped to a slot")
	seed      = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	notify    = flag.Bool("notify", false, "publish an update message per created config when REDIS_ADDR is set")
)

func splitCodes(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func main() {
	flag.Parse()

	logger, err := observability.InitLoggerWithService("seed-configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	cfg := config.Load()
	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	var notifier *db.RedisNotifier
	if *notify && cfg.RedisAddr != "" {
		notifier, err = db.InitRedis(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		defer notifier.Close()
	}

	r := rand.New(rand.NewSource(*seed))
	profiles := demoProfiles(splitCodes(*envs), splitCodes(*geos), splitCodes(*devices), splitCodes(*pageTypes))
	slotCodes := splitCodes(*slots)
	bidderCodes := splitCodes(*bidders)

	var created, skipped int
	for _, p := range profiles {
		id, err := pg.EnsureProfile(ctx, p)
		if err != nil {
			logger.Fatal("ensure profile", zap.String("profile", p.Label()), zap.Error(err))
		}
		scs, err := pg.EnsureSlotConfigs(ctx, id, slotCodes)
		if err != nil {
			logger.Fatal("ensure slot configs", zap.Int("profile_id", id), zap.Error(err))
		}

		for _, sc := range scs {
			for _, bidder := range bidderCodes {
				if r.Float64() >= *coverage {
					continue
				}
				cfgID, err := pg.CreateBidderConfig(ctx, bidder, sc.ID, demoParams(r, bidder, p, sc.SlotCode))
				if errors.Is(err, models.ErrDuplicate) {
					skipped++
					continue
				}
				if err != nil {
					logger.Fatal("create bidder config",
						zap.String("bidder", bidder), zap.Int("slot_config_id", sc.ID), zap.Error(err))
				}
				created++
				if notifier != nil {
					if _, err := notifier.Publish(ctx, db.ActionCreate, cfgID, bidder); err != nil {
						logger.Warn("publish update message", zap.Int("bidder_config_id", cfgID), zap.Error(err))
					}
				}
			}
		}
	}

	logger.Info("seed complete",
		zap.Int("profiles", len(profiles)),
		zap.Int("created", created),
		zap.Int("skipped_existing", skipped),
		zap.Int64("seed", *seed))
}
