package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cnwire/config"
	"cnwire/models"
	"cnwire/normalize"

	log "github.com/sirupsen/logrus"
)

// cninfoPlates are the two exchanges whose filings the registry serves.
// Both are polled every run.
var cninfoPlates = []string{"szse", "sse"}

type cninfoAnnouncement struct {
	Title string `json:"announcementTitle"`
	URL   string `json:"announcementUrl"`
	Time  int64  `json:"announcementTime"`
}

type cninfoResponse struct {
	Announcements []cninfoAnnouncement `json:"announcements"`
}

// Cninfo fetches company filings from the 巨潮资讯 disclosure registry. Each
// exchange plate is queried separately; a single failing plate degrades to a
// warning so the other plate's filings still make the feed.
type Cninfo struct {
	client *http.Client
	cfg    config.CninfoConfig
}

func NewCninfo(client *http.Client, cfg config.CninfoConfig) *Cninfo {
	return &Cninfo{client: client, cfg: cfg}
}

func (s *Cninfo) Name() string  { return "cninfo" }
func (s *Cninfo) Label() string { return models.LabelCninfo }

func (s *Cninfo) Fetch(ctx context.Context) ([]models.Record, error) {
	var announcements []cninfoAnnouncement
	var errs []error
	for _, plate := range cninfoPlates {
		batch, err := s.fetchPlate(ctx, plate)
		if err != nil {
			errs = append(errs, fmt.Errorf("plate %s: %w", plate, err))
			log.WithFields(log.Fields{"source": s.Name(), "plate": plate}).Warn("plate failed: ", err)
			continue
		}
		announcements = append(announcements, batch...)
	}
	if len(errs) == len(cninfoPlates) {
		return nil, errors.Join(errs...)
	}

	records := make([]models.Record, 0, len(announcements))
	for _, announcement := range announcements {
		title := normalize.CleanText(announcement.Title)
		link := fixupLink(announcement.URL)
		if title == "" || link == "" {
			continue
		}
		pubDate, err := normalize.FromUnix(announcement.Time)
		if err != nil {
			log.WithFields(log.Fields{"source": s.Name(), "link": link}).Debug("skipping filing without a resolvable time")
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

func (s *Cninfo) fetchPlate(ctx context.Context, plate string) ([]cninfoAnnouncement, error) {
	form := url.Values{
		"pageNum":   {"1"},
		"pageSize":  {strconv.Itoa(s.cfg.PageSize)},
		"column":    {plate},
		"tabName":   {"fulltext"},
		"plate":     {plate},
		"searchkey": {""},
		"secid":     {""},
		"sortName":  {""},
		"sortType":  {""},
		"isHLtitle": {"true"},
	}
	headers := map[string]string{"Referer": "https://www.cninfo.com.cn"}

	var response cninfoResponse
	if err := postForm(ctx, s.client, s.cfg.Endpoint, form, headers, &response); err != nil {
		return nil, err
	}
	return response.Announcements, nil
}

// fixupLink makes filing links absolute. The registry returns paths relative
// to its own host.
func fixupLink(raw string) string {
	link := strings.TrimSpace(raw)
	if link == "" || strings.HasPrefix(link, "http") {
		return link
	}
	return "http://www.cninfo.com.cn/" + strings.TrimLeft(link, "/")
}
