// Package media resolves natural-language media queries into real image and
// video links using third-party search APIs.
package media

import (
	"context"
	"strings"
	"sync"
	"time"

	"coursegen/logger"

	"golang.org/x/sync/errgroup"
)

const youtubeWatchURL = "https://www.youtube.com/watch?v="

// ImageSearcher returns image URLs for a query, best match first.
type ImageSearcher interface {
	SearchImages(ctx context.Context, query string, limit int) ([]string, error)
}

// VideoSearcher returns video identifiers for a query, best match first.
type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string, limit int) ([]string, error)
}

// ResolverConfig bounds the fan-out.
type ResolverConfig struct {
	// Timeout applies to each provider round trip.
	Timeout time.Duration
	// Concurrency caps in-flight provider calls across both families.
	Concurrency int
}

// Resolver turns slot-keyed query sets into slot-keyed links. A slot whose
// lookup fails is simply absent from the result.
type Resolver struct {
	images ImageSearcher
	videos VideoSearcher
	cfg    ResolverConfig
	log    *logger.Logger
}

// NewResolver builds a Resolver. Either searcher may be nil when its
// credential is not configured; its slots then never resolve.
func NewResolver(images ImageSearcher, videos VideoSearcher, cfg ResolverConfig, log *logger.Logger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{images: images, videos: videos, cfg: cfg, log: log}
}

// Resolve looks up every non-blank query independently. The returned maps
// only hold keys from the corresponding input and never hold empty values.
func (r *Resolver) Resolve(ctx context.Context, imageQueries, videoQueries map[string]string) (map[string]string, map[string]string) {
	images := map[string]string{}
	videos := map[string]string{}
	var mu sync.Mutex

	if r.images == nil && len(imageQueries) > 0 {
		r.log.Warn("image search not configured, skipping image queries", "count", len(imageQueries))
	}
	if r.videos == nil && len(videoQueries) > 0 {
		r.log.Warn("video search not configured, skipping video queries", "count", len(videoQueries))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	if r.images != nil {
		for slot, query := range imageQueries {
			slot, query := slot, strings.TrimSpace(query)
			if query == "" {
				continue
			}
			g.Go(func() error {
				if url, ok := r.resolveImage(gctx, query); ok {
					mu.Lock()
					images[slot] = url
					mu.Unlock()
				}
				return nil
			})
		}
	}
	if r.videos != nil {
		for slot, query := range videoQueries {
			slot, query := slot, strings.TrimSpace(query)
			if query == "" {
				continue
			}
			g.Go(func() error {
				if url, ok := r.resolveVideo(gctx, query); ok {
					mu.Lock()
					videos[slot] = url
					mu.Unlock()
				}
				return nil
			})
		}
	}
	// Tasks never return an error; a failed slot is just left out.
	_ = g.Wait()

	if len(images) < len(imageQueries) || len(videos) < len(videoQueries) {
		r.log.Info("partial media resolution",
			"images_requested", len(imageQueries), "images_resolved", len(images),
			"videos_requested", len(videoQueries), "videos_resolved", len(videos),
		)
	}
	return images, videos
}

func (r *Resolver) resolveImage(ctx context.Context, query string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	urls, err := r.images.SearchImages(ctx, query, 1)
	if err != nil {
		r.log.Warn("image search failed", "query", query, "error", err)
		return "", false
	}
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			return u, true
		}
	}
	r.log.Info("no image found", "query", query)
	return "", false
}

func (r *Resolver) resolveVideo(ctx context.Context, query string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	ids, err := r.videos.SearchVideos(ctx, query, 1)
	if err != nil {
		r.log.Warn("video search failed", "query", query, "error", err)
		return "", false
	}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			return WatchURL(id), true
		}
	}
	r.log.Info("no video found", "query", query)
	return "", false
}

// WatchURL builds the canonical YouTube watch link for a video id.
func WatchURL(videoID string) string {
	return youtubeWatchURL + videoID
}
