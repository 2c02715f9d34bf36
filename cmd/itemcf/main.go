// Command itemcf 从评分数据构建物品相似度模型，并为一个用户预测评分或运行推荐 Pipeline。
//
//	itemcf -ratings ratings.csv -user 42 -items 1,2,3
//	itemcf -ratings ratings.csv -user 42 -config app.yaml -pipeline pipeline.yaml
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/itemcf/config"
	"github.com/rushteam/itemcf/config/builders"
	"github.com/rushteam/itemcf/core"
	"github.com/rushteam/itemcf/model"
	"github.com/rushteam/itemcf/pkg/dataset"
	"github.com/rushteam/itemcf/pkg/logging"
	"github.com/rushteam/itemcf/rank"
	"github.com/rushteam/itemcf/recall"
	"github.com/rushteam/itemcf/store"
)

type options struct {
	ratings     string
	user        int64
	items       string
	config      string
	pipeline    string
	metricsAddr string
}

func main() {
	var opts options
	flag.StringVar(&opts.ratings, "ratings", "", "ratings CSV (user,item,rating[,timestamp]) loaded into the store before building")
	flag.Int64Var(&opts.user, "user", -1, "user id to score for (ids may start at 0)")
	flag.StringVar(&opts.items, "items", "", "comma separated target item ids (default: every unrated item)")
	flag.StringVar(&opts.config, "config", "", "application config YAML")
	flag.StringVar(&opts.pipeline, "pipeline", "", "pipeline YAML; overrides pipeline.path")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		logging.Error().Err(err).Msg("itemcf failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return err
	}
	if opts.pipeline != "" {
		cfg.Pipeline.Path = opts.pipeline
	}
	logging.Init(cfg.Log)
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := logging.Ctx(ctx)

	if opts.user < 0 {
		return core.ErrInvalidUser
	}

	if opts.metricsAddr != "" {
		srv := serveMetrics(opts.metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	kv, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer kv.Close()

	ratings := recall.NewRatingStoreAdapter(kv, cfg.Store.KeyPrefix)
	hotKey := ratings.KeyPrefix + ":hot"
	if opts.ratings != "" {
		corpus, err := dataset.LoadCSV(opts.ratings)
		if err != nil {
			return fmt.Errorf("read %s: %w", opts.ratings, err)
		}
		if err := recall.LoadRatings(ctx, ratings, corpus); err != nil {
			return fmt.Errorf("load ratings: %w", err)
		}
		popular, err := recall.PopularItems(ctx, ratings, core.Defaults.DefaultCandidateLimit())
		if err != nil {
			return err
		}
		if err := recall.SaveHot(ctx, kv, hotKey, popular); err != nil {
			return err
		}
		log.Info().Int("ratings", len(corpus)).Str("store", kv.Name()).Msg("ratings loaded")
	}

	m, err := model.NewBuilder(model.WithWorkers(cfg.Model.Workers)).BuildFromStore(ctx, ratings)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}

	history, err := ratings.GetUserRatings(ctx, opts.user)
	if err != nil {
		return err
	}

	if cfg.Pipeline.Path != "" {
		return runPipeline(ctx, cfg, m, ratings, kv, history, opts.user)
	}

	targets, err := parseItems(opts.items)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		for _, id := range m.Items() {
			if _, rated := history[id]; !rated {
				targets = append(targets, id)
			}
		}
	}

	scorer := rank.NewItemItemScorer(m, cfg.Scoring.NeighborhoodSize)
	preds, err := scorer.Score(ctx, opts.user, history, targets)
	if err != nil {
		return err
	}
	return printJSON(preds)
}

func runPipeline(
	ctx context.Context,
	cfg *config.AppConfig,
	m *model.SimilarityModel,
	ratings core.RatingStore,
	kv core.Store,
	history map[int64]float64,
	userID int64,
) error {
	builders.Register(builders.Env{
		Model:            m,
		Ratings:          ratings,
		Store:            kv,
		NeighborhoodSize: cfg.Scoring.NeighborhoodSize,
		Fallback:         rank.Fallback(cfg.Scoring.Fallback),
	})
	p, err := config.LoadPipeline(cfg.Pipeline.Path)
	if err != nil {
		return err
	}

	rctx := &core.RecommendContext{UserID: userID, Ratings: history}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return err
	}

	type result struct {
		ID     int64             `json:"id"`
		Score  float64           `json:"score"`
		Labels map[string]string `json:"labels,omitempty"`
	}
	out := make([]result, 0, len(items))
	for _, it := range items {
		labels := make(map[string]string, len(it.Labels))
		for k, v := range it.Labels {
			labels[k] = v.Value
		}
		out = append(out, result{ID: it.ID, Score: it.Score, Labels: labels})
	}
	return printJSON(out)
}

func openStore(cfg config.StoreConfig) (core.HashStore, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		rs, err := store.NewRedisStore(cfg.Addr, cfg.DB)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}

func parseItems(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: item %q", core.ErrConfigInvalid, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
