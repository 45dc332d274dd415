package aggregate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cnwire/aggregate"
	"cnwire/models"
	"cnwire/sources"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name    string
	label   string
	records []models.Record
	err     error
	delay   time.Duration
}

func (s *stubSource) Name() string  { return s.name }
func (s *stubSource) Label() string { return s.label }

func (s *stubSource) Fetch(ctx context.Context) ([]models.Record, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.records, s.err
}

func record(source, title, link string, pubDate time.Time) models.Record {
	return models.Record{Source: source, TitleZh: title, Link: link, PubDate: pubDate}
}

var baseTime = time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)

func TestFetchPreservesSourceOrder(t *testing.T) {
	srcs := []sources.Source{
		&stubSource{name: "slow", delay: 30 * time.Millisecond},
		&stubSource{name: "medium", delay: 10 * time.Millisecond},
		&stubSource{name: "fast"},
	}

	results := aggregate.Fetch(context.Background(), srcs, time.Second)

	require.Len(t, results, 3)
	assert.Equal(t, "slow", results[0].Source)
	assert.Equal(t, "medium", results[1].Source)
	assert.Equal(t, "fast", results[2].Source)
}

func TestFetchIsolatesFailures(t *testing.T) {
	srcs := []sources.Source{
		&stubSource{name: "ok", records: []models.Record{record("甲", "标题", "https://a/1", baseTime)}},
		&stubSource{name: "broken", err: errors.New("connection refused")},
		&stubSource{name: "also-ok", records: []models.Record{record("乙", "标题", "https://b/1", baseTime)}},
	}

	results := aggregate.Fetch(context.Background(), srcs, time.Second)

	require.Len(t, results, 3)
	assert.False(t, results[0].Degraded())
	assert.True(t, results[1].Degraded())
	assert.Empty(t, results[1].Records)
	assert.False(t, results[2].Degraded())
	assert.Len(t, results[2].Records, 1)
}

func TestFetchEnforcesPerSourceDeadline(t *testing.T) {
	srcs := []sources.Source{
		&stubSource{name: "hanging", delay: 500 * time.Millisecond},
		&stubSource{name: "quick", records: []models.Record{record("甲", "标题", "https://a/1", baseTime)}},
	}

	start := time.Now()
	results := aggregate.Fetch(context.Background(), srcs, 30*time.Millisecond)

	assert.Less(t, time.Since(start), 400*time.Millisecond, "a hanging source must not stall the run")
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
	assert.False(t, results[1].Degraded())
}

func TestMergeDedupesWithinSource(t *testing.T) {
	results := []models.FetchResult{
		{Source: "cailian", Records: []models.Record{
			record("财联社", "第一次出现", "https://www.cls.cn/detail/1", baseTime.Add(2*time.Hour)),
			record("财联社", "重复链接", "https://www.cls.cn/detail/1", baseTime),
		}},
	}

	merged := aggregate.Merge(results)

	require.Len(t, merged, 1)
	assert.Equal(t, "第一次出现", merged[0].TitleZh, "the first occurrence wins")
}

func TestMergeKeepsSameLinkAcrossSources(t *testing.T) {
	// A wire item at 01:00, a market item at 02:00, an empty disclosure
	// result, and a social item at 00:30 sharing its link with the market
	// item. The shared link survives because the sources differ.
	results := []models.FetchResult{
		{Source: "cailian", Records: []models.Record{
			record("财联社", "T1", "https://a/1", baseTime),
		}},
		{Source: "sina", Records: []models.Record{
			record("新浪财经", "T2", "https://b/2", baseTime.Add(time.Hour)),
		}},
		{Source: "cninfo"},
		{Source: "xueqiu", Records: []models.Record{
			record("雪球", "T3", "https://b/2", baseTime.Add(-30*time.Minute)),
		}},
	}

	merged := aggregate.Merge(results)

	require.Len(t, merged, 3)
	assert.Equal(t, "T2", merged[0].TitleZh)
	assert.Equal(t, "T1", merged[1].TitleZh)
	assert.Equal(t, "T3", merged[2].TitleZh)
}

func TestMergeSortsNewestFirstWithStableTies(t *testing.T) {
	tied := baseTime
	results := []models.FetchResult{
		{Source: "cailian", Records: []models.Record{
			record("财联社", "并列甲一", "https://a/1", tied),
			record("财联社", "并列甲二", "https://a/2", tied),
		}},
		{Source: "sina", Records: []models.Record{
			record("新浪财经", "更新的", "https://b/1", tied.Add(time.Minute)),
			record("新浪财经", "并列乙", "https://b/2", tied),
		}},
	}

	merged := aggregate.Merge(results)

	require.Len(t, merged, 4)
	assert.Equal(t, "更新的", merged[0].TitleZh)
	// ties keep source order, then upstream order within a source
	assert.Equal(t, "并列甲一", merged[1].TitleZh)
	assert.Equal(t, "并列甲二", merged[2].TitleZh)
	assert.Equal(t, "并列乙", merged[3].TitleZh)
}

func TestMergeDropsInvalidRecords(t *testing.T) {
	results := []models.FetchResult{
		{Source: "cailian", Records: []models.Record{
			record("财联社", "有效", "https://a/1", baseTime),
			record("财联社", "坏链接", "detail/2", baseTime),
			record("财联社", "没时间", "https://a/3", time.Time{}),
			record("财联社", "", "https://a/4", baseTime),
		}},
	}

	merged := aggregate.Merge(results)

	require.Len(t, merged, 1)
	assert.Equal(t, "有效", merged[0].TitleZh)
}

func TestMergeWithNoRecordsReturnsEmpty(t *testing.T) {
	merged := aggregate.Merge([]models.FetchResult{{Source: "cailian"}, {Source: "sina"}})

	assert.Empty(t, merged)
}

func TestCombineFoldsPreviousBehindFresh(t *testing.T) {
	fresh := []models.Record{
		record("财联社", "新的头条", "https://a/1", baseTime.Add(time.Hour)),
		record("新浪财经", "更正后的标题", "https://b/1", baseTime),
	}
	previous := []models.Record{
		record("新浪财经", "更正前的标题", "https://b/1", baseTime),
		record("雪球", "掉出窗口的旧闻", "https://c/1", baseTime.Add(-time.Hour)),
	}

	combined := aggregate.Combine(fresh, previous, 0)

	require.Len(t, combined, 3)
	assert.Equal(t, "新的头条", combined[0].TitleZh)
	assert.Equal(t, "更正后的标题", combined[1].TitleZh, "the fresh copy wins the key collision")
	assert.Equal(t, "掉出窗口的旧闻", combined[2].TitleZh, "items missing upstream survive from the previous artifact")
}

func TestCombineCapsTheResult(t *testing.T) {
	fresh := []models.Record{
		record("财联社", "一", "https://a/1", baseTime.Add(3*time.Minute)),
		record("财联社", "二", "https://a/2", baseTime.Add(2*time.Minute)),
	}
	previous := []models.Record{
		record("雪球", "三", "https://c/1", baseTime.Add(time.Minute)),
		record("雪球", "四", "https://c/2", baseTime),
	}

	combined := aggregate.Combine(fresh, previous, 3)

	require.Len(t, combined, 3)
	assert.Equal(t, "一", combined[0].TitleZh)
	assert.Equal(t, "三", combined[2].TitleZh, "the cap drops the oldest items")
}
