package sources_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cnwire/config"
	"cnwire/models"
	"cnwire/sources"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinaFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>财经焦点</title>
    <link>https://finance.sina.com.cn</link>
    <item>
      <title>两市成交额连续破万亿</title>
      <link>https://finance.sina.com.cn/stock/a.shtml</link>
      <pubDate>Fri, 01 Mar 2024 12:05:06 +0800</pubDate>
    </item>
    <item>
      <title>缺少日期的条目</title>
      <link>https://finance.sina.com.cn/stock/b.shtml</link>
    </item>
    <item>
      <title></title>
      <link>https://finance.sina.com.cn/stock/c.shtml</link>
      <pubDate>Fri, 01 Mar 2024 12:00:00 +0800</pubDate>
    </item>
  </channel>
</rss>`

func TestSinaFetchParsesFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, sinaFeed)
	}))
	defer server.Close()

	source := sources.NewSina(server.Client(), config.SinaConfig{FeedURL: server.URL, Limit: 40})
	records, err := source.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1, "entries without a date or title are dropped")
	assert.Equal(t, models.Record{
		Source:  models.LabelSina,
		TitleZh: "两市成交额连续破万亿",
		Link:    "https://finance.sina.com.cn/stock/a.shtml",
		PubDate: time.Date(2024, 3, 1, 4, 5, 6, 0, time.UTC),
	}, records[0])
}

func TestSinaFetchFailsOnMalformedFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "service temporarily unavailable")
	}))
	defer server.Close()

	source := sources.NewSina(server.Client(), config.SinaConfig{FeedURL: server.URL})
	records, err := source.Fetch(context.Background())

	assert.Error(t, err)
	assert.Empty(t, records)
}

func TestSinaFetchFailsWhenFeedUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	source := sources.NewSina(server.Client(), config.SinaConfig{FeedURL: server.URL})
	_, err := source.Fetch(context.Background())

	assert.Error(t, err)
}
