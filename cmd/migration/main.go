package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"migration-renderer/internal/attrib"
	"migration-renderer/internal/config"
	"migration-renderer/internal/dataset"
	"migration-renderer/internal/db"
	"migration-renderer/internal/flow"
	"migration-renderer/internal/jitter"
	"migration-renderer/internal/metrics"
	"migration-renderer/internal/publisher"
	"migration-renderer/internal/render"
	"migration-renderer/internal/sim"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	trajectories, loadRejected, err := loadTrajectories(ctx, cfg)
	if err != nil {
		log.Fatalf("load trajectories: %v", err)
	}

	// Metrics setup
	var mcol *metrics.Collector
	var metricsSrvCancel context.CancelFunc
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.SpeedMultiplier, cfg.FrameInterval)
		mctx, mcancel := context.WithCancel(ctx)
		metricsSrvCancel = mcancel
		srv := mcol.Serve(cfg.MetricsAddr)
		go func() {
			<-mctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// Expand once; the instance set is read-only from here on
	seedSource := "clock"
	if cfg.SeedFromEnv {
		seedSource = "RNG_SEED"
	}
	log.Printf("expanding %d trajectories with seed %d (%s), timestamp policy %s", len(trajectories), cfg.RNGSeed, seedSource, cfg.TimestampPolicy)
	res := flow.NewExpander(jitter.NewSeeded(cfg.RNGSeed), cfg.TimestampPolicy).Expand(trajectories)
	res.Rejected = append(loadRejected, res.Rejected...)
	if len(res.Rejected) > 0 {
		log.Printf("rejected %d trajectories: %v", len(res.Rejected), res.RejectedIDs())
	}
	log.Printf("expanded %d instances", len(res.Instances))
	if mcol != nil {
		mcol.Instances.Set(float64(len(res.Instances)))
		mcol.TrajectoriesRejected.Add(float64(len(res.Rejected)))
	}

	layer := buildLayer(cfg, res.Instances)

	// Initialize NATS publisher
	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
	if err != nil {
		log.Fatalf("nats error: %v", err)
	}
	defer pub.Close()

	player := sim.NewPlayer(layer, pub, cfg.FrameInterval, cfg.SpeedMultiplier, cfg.Duration, wrapPlayerMetrics(mcol))
	sub, err := pub.SubscribeSeek(player.Seek)
	if err != nil {
		log.Fatalf("nats subscribe error: %v", err)
	}
	player.Start(ctx)

	// Block until context cancelled
	<-ctx.Done()
	_ = sub.Unsubscribe()
	player.Stop()
	if metricsSrvCancel != nil {
		metricsSrvCancel()
	}
	log.Println("shutdown complete")
}

func loadTrajectories(ctx context.Context, cfg *config.Config) ([]flow.Trajectory, []*flow.DataShapeError, error) {
	if cfg.DatasetPath != "" {
		ds, err := dataset.LoadFile(cfg.DatasetPath)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("loaded %d trajectories from %s (%s), %d unreadable", len(ds.Trajectories), cfg.DatasetPath, ds.Format, len(ds.Rejected))
		return ds.Trajectories, ds.Rejected, nil
	}

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	defer sqlDB.Close()
	if err := db.Ping(ctx, sqlDB); err != nil {
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	trs, rejected, err := db.FetchTrajectories(ctx, sqlDB)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("loaded %d trajectories from postgres, %d unreadable", len(trs), len(rejected))
	return trs, rejected, nil
}

func buildLayer(cfg *config.Config, instances []flow.Instance) render.Layer {
	props := render.DefaultProps()
	props.TrailLength = cfg.TrailLength
	props.Duration = cfg.Duration
	props.FadeTrail = cfg.FadeTrail

	if cfg.Layer == "trail" {
		return render.NewTrailLayer(instances, props)
	}
	buf := attrib.NewBuffer(instances, attrib.WithWorkers(cfg.UpdateWorkers))
	return render.NewMigrationLayer(buf, props)
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}

// wrapPlayerMetrics adapts our Collector to the PlayerMetrics interface.
func wrapPlayerMetrics(c *metrics.Collector) sim.PlayerMetrics {
	if c == nil {
		return nil
	}
	return &playerMetrics{c: c}
}

type playerMetrics struct{ c *metrics.Collector }

func (p *playerMetrics) UpdateObserve(d time.Duration) { p.c.UpdateDuration.Observe(d.Seconds()) }
func (p *playerMetrics) QueryTimeSet(t float64)        { p.c.QueryTime.Set(t) }
func (p *playerMetrics) DegenerateAdd(n int)           { p.c.DegenerateSegments.Add(float64(n)) }
func (p *playerMetrics) SeekInc()                      { p.c.Seeks.Inc() }
func (p *playerMetrics) FrameServed(recomputed bool) {
	if recomputed {
		p.c.FramesRecomputed.Inc()
	} else {
		p.c.FramesCached.Inc()
	}
}
