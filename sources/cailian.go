package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"cnwire/config"
	"cnwire/models"
	"cnwire/normalize"

	log "github.com/sirupsen/logrus"
)

// clsItem is one telegraph entry as the CLS node API returns it. Flash items
// often have an empty title and carry their text in content instead.
type clsItem struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Ctime   int64  `json:"ctime"`
	Time    int64  `json:"time"`
}

type clsResponse struct {
	Data struct {
		RollData []clsItem `json:"roll_data"`
	} `json:"data"`
}

// Cailian fetches the 财联社 telegraph wire through the public CLS node API.
// The telegraph endpoint is primary; when it fails or comes back empty the
// roll list endpoint serves as fallback, mirroring what the web client does.
type Cailian struct {
	client *http.Client
	cfg    config.CailianConfig
}

func NewCailian(client *http.Client, cfg config.CailianConfig) *Cailian {
	return &Cailian{client: client, cfg: cfg}
}

func (s *Cailian) Name() string  { return "cailian" }
func (s *Cailian) Label() string { return models.LabelCailian }

func (s *Cailian) Fetch(ctx context.Context) ([]models.Record, error) {
	endpoints := []struct {
		path  string
		query url.Values
	}{
		{"telegraphList", url.Values{
			"app":      {"CailianpressWeb"},
			"category": {"0"},
			"lastTime": {"0"},
		}},
		{"rollList", url.Values{
			"app":      {"CailianpressWeb"},
			"category": {"1"},
			"page":     {"1"},
			"size":     {"40"},
		}},
	}
	headers := map[string]string{"Referer": "https://www.cls.cn/"}

	var lastErr error
	reached := false
	for _, endpoint := range endpoints {
		var response clsResponse
		if err := getJSON(ctx, s.client, s.cfg.BaseURL+"/"+endpoint.path, endpoint.query, headers, &response); err != nil {
			lastErr = fmt.Errorf("%s: %w", endpoint.path, err)
			log.WithFields(log.Fields{"source": s.Name(), "endpoint": endpoint.path}).Warn("endpoint failed: ", err)
			continue
		}
		reached = true
		if records := s.mapItems(response.Data.RollData); len(records) > 0 {
			return records, nil
		}
	}
	if !reached {
		return nil, lastErr
	}
	return []models.Record{}, nil
}

// mapItems converts raw telegraph entries to records. Entries without an id
// have no stable detail page and are skipped, as are entries whose time
// cannot be resolved.
func (s *Cailian) mapItems(items []clsItem) []models.Record {
	records := make([]models.Record, 0, len(items))
	for _, item := range items {
		title := normalize.CleanText(item.Title)
		if title == "" {
			title = normalize.CleanText(item.Content)
		}
		if item.ID == 0 || title == "" {
			continue
		}

		epoch := item.Ctime
		if epoch == 0 {
			epoch = item.Time
		}
		pubDate, err := normalize.FromUnix(epoch)
		if err != nil {
			log.WithFields(log.Fields{"source": s.Name(), "id": item.ID}).Debug("skipping item without a resolvable time")
			continue
		}

		records = append(records, models.Record{
			Source:  s.Label(),
			TitleZh: title,
			Link:    fmt.Sprintf("https://www.cls.cn/detail/%d", item.ID),
			PubDate: pubDate,
		})
	}
	return capRecords(records, s.cfg.Limit)
}
