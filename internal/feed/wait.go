// Package feed provides startup helpers shared by feed adapters: waiting
// for configured feed hosts to become reachable before the aggregator
// begins accepting subscriptions.
package feed

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/quantmesh/lobagg/internal/config"
	"github.com/quantmesh/lobagg/internal/logger"
)

// Resolver reports whether host is currently reachable; a nil error means
// reachable.
type Resolver func(ctx context.Context, host string) error

// ShouldWait reports whether the aggregator should block at startup until
// every feed host is reachable, controlled by LOBAGG_WAIT_FOR_FEEDS. Unset,
// or any value other than "0", "false", "no", "off" (case-insensitive),
// means wait.
func ShouldWait() bool {
	return shouldWait(os.Getenv("LOBAGG_WAIT_FOR_FEEDS"))
}

func shouldWait(envValue string) bool {
	normalized := strings.ToLower(strings.TrimSpace(envValue))
	switch normalized {
	case "", "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// CollectHosts extracts the unique hostnames referenced by feeds' URLs,
// skipping any that fail to parse.
func CollectHosts(feeds []config.FeedConfig, log logger.LoggerInterface) []string {
	if log == nil {
		log = logger.Discard()
	}

	seen := make(map[string]struct{})
	var hosts []string
	for _, f := range feeds {
		u, err := url.Parse(f.URL)
		if err != nil || u.Hostname() == "" {
			log.Warn(context.Background(), "failed to parse feed URL", "feed", f.Name, "url", f.URL, "error", err)
			continue
		}
		host := u.Hostname()
		if _, ok := seen[host]; !ok {
			seen[host] = struct{}{}
			hosts = append(hosts, host)
		}
	}
	return hosts
}

// WaitReachable blocks until resolve reports every host reachable, retrying
// each unreachable host every retryDelay, or until ctx is cancelled.
func WaitReachable(ctx context.Context, hosts []string, resolve Resolver, retryDelay time.Duration, log logger.LoggerInterface) error {
	if log == nil {
		log = logger.Discard()
	}

	for _, host := range hosts {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := resolve(ctx, host); err == nil {
				log.Info(ctx, "feed host resolved", "host", host)
				break
			} else {
				log.Info(ctx, "waiting for feed host", "host", host, "error", err)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return nil
}
