package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cnwire/config"
	"cnwire/models"
	"cnwire/normalize"

	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

// Sina fetches 新浪财经's market news RSS feed.
type Sina struct {
	client *http.Client
	parser *gofeed.Parser
	cfg    config.SinaConfig
}

func NewSina(client *http.Client, cfg config.SinaConfig) *Sina {
	return &Sina{client: client, parser: gofeed.NewParser(), cfg: cfg}
}

func (s *Sina) Name() string  { return "sina" }
func (s *Sina) Label() string { return models.LabelSina }

func (s *Sina) Fetch(ctx context.Context) ([]models.Record, error) {
	body, err := getBody(ctx, s.client, s.cfg.FeedURL, nil)
	if err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	records := make([]models.Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := normalize.CleanText(item.Title)
		if title == "" || item.Link == "" {
			continue
		}
		pubDate, err := itemTime(item)
		if err != nil {
			log.WithFields(log.Fields{"source": s.Name(), "link": item.Link}).Debug("skipping entry without a resolvable time")
			continue
		}
		records = append(records, models.Record{
			Source:  s.Label(),
			TitleZh: title,
			Link:    item.Link,
			PubDate: pubDate,
		})
	}
	return capRecords(records, s.cfg.Limit), nil
}

// itemTime prefers the feed library's parsed dates and falls back to the raw
// published/updated strings for entries in layouts it does not know.
func itemTime(item *gofeed.Item) (time.Time, error) {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Truncate(time.Second), nil
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC().Truncate(time.Second), nil
	}
	raw := item.Published
	if raw == "" {
		raw = item.Updated
	}
	return normalize.ParseTime(raw, normalize.CST)
}
