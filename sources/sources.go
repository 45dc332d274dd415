// Package sources contains one adapter per upstream news service. Every
// adapter maps its upstream's shape onto models.Record behind the same small
// interface, so the rest of the pipeline never sees upstream-specific types.
package sources

import (
	"context"

	"cnwire/config"
	"cnwire/models"
)

// Source is the capability the pipeline consumes. Fetch returns the
// upstream's most recent items already normalized; transport and decode
// faults surface as the error.
type Source interface {
	// Name is the short id used in config, flags and logs.
	Name() string
	// Label is the human-readable name stamped on every record.
	Label() string
	Fetch(ctx context.Context) ([]models.Record, error)
}

// FromConfig builds the enabled sources in the fixed pipeline order:
// cailian, sina, cninfo, xueqiu. The order is part of the output contract.
// It decides which copy wins deduplication and how timestamp ties break, so
// it never depends on configuration order or fetch completion.
func FromConfig(cfg *config.Config) []Source {
	client := newClient(cfg.Proxy)

	var srcs []Source
	if !cfg.Cailian.Disabled {
		srcs = append(srcs, NewCailian(client, cfg.Cailian))
	}
	if !cfg.Sina.Disabled {
		srcs = append(srcs, NewSina(client, cfg.Sina))
	}
	if !cfg.Cninfo.Disabled {
		srcs = append(srcs, NewCninfo(client, cfg.Cninfo))
	}
	if !cfg.Xueqiu.Disabled {
		srcs = append(srcs, NewXueqiu(client, cfg.Xueqiu))
	}
	return srcs
}

// capRecords applies a source's "most recent n" cap. Upstreams return newest
// first, so keeping the prefix keeps the right items.
func capRecords(records []models.Record, limit int) []models.Record {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
