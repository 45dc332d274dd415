package sources_test

import (
	"testing"

	"cnwire/config"
	"cnwire/sources"

	"github.com/stretchr/testify/assert"
)

func sourceNames(srcs []sources.Source) []string {
	names := make([]string, 0, len(srcs))
	for _, src := range srcs {
		names = append(names, src.Name())
	}
	return names
}

func TestFromConfigKeepsFixedOrder(t *testing.T) {
	srcs := sources.FromConfig(config.Default())

	assert.Equal(t, []string{"cailian", "sina", "cninfo", "xueqiu"}, sourceNames(srcs))
}

func TestFromConfigSkipsDisabledSources(t *testing.T) {
	cfg := config.Default()
	cfg.Sina.Disabled = true
	cfg.Xueqiu.Disabled = true

	srcs := sources.FromConfig(cfg)

	assert.Equal(t, []string{"cailian", "cninfo"}, sourceNames(srcs))
}
