package sources

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cnwire/config"
	"cnwire/models"
	"cnwire/normalize"

	log "github.com/sirupsen/logrus"
)

type xueqiuItem struct {
	Title     string `json:"title"`
	Target    string `json:"target"`
	Link      string `json:"link"`
	Time      int64  `json:"time"`
	CreatedAt int64  `json:"created_at"`
}

type xueqiuResponse struct {
	Items []xueqiuItem `json:"items"`
}

// Xueqiu fetches market chatter from the 雪球 community news endpoint. The
// endpoint wants a browser session cookie; without one the request is still
// attempted because the API intermittently accepts anonymous reads.
type Xueqiu struct {
	client *http.Client
	cfg    config.XueqiuConfig
}

func NewXueqiu(client *http.Client, cfg config.XueqiuConfig) *Xueqiu {
	return &Xueqiu{client: client, cfg: cfg}
}

func (s *Xueqiu) Name() string  { return "xueqiu" }
func (s *Xueqiu) Label() string { return models.LabelXueqiu }

func (s *Xueqiu) Fetch(ctx context.Context) ([]models.Record, error) {
	headers := map[string]string{}
	if s.cfg.Token == "" {
		log.WithField("source", s.Name()).Warn("no session token configured, the endpoint may reject the request")
	} else {
		headers["Cookie"] = sessionCookie(s.cfg.Token)
	}

	query := url.Values{
		"symbol": {s.cfg.Symbol},
		"count":  {strconv.Itoa(s.cfg.Count)},
		"source": {"web"},
	}

	var response xueqiuResponse
	if err := getJSON(ctx, s.client, s.cfg.Endpoint, query, headers, &response); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(response.Items))
	for _, item := range response.Items {
		title := normalize.CleanText(item.Title)
		link := item.Target
		if link == "" {
			link = item.Link
		}
		if title == "" || link == "" {
			continue
		}

		epoch := item.Time
		if epoch == 0 {
			epoch = item.CreatedAt
		}
		pubDate, err := normalize.FromUnix(epoch)
		if err != nil {
			log.WithFields(log.Fields{"source": s.Name(), "link": link}).Debug("skipping item without a resolvable time")
			continue
		}

		records = append(records, models.Record{
			Source:  s.Label(),
			TitleZh: title,
			Link:    link,
			PubDate: pubDate,
		})
	}
	return capRecords(records, s.cfg.Limit), nil
}

// sessionCookie renders the xq_a_token cookie. Tokens pasted straight from a
// browser sometimes already carry the cookie name; those pass through as-is.
func sessionCookie(token string) string {
	if strings.Contains(token, "xq_a_token") {
		return token
	}
	return "xq_a_token=" + token
}
