package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"cnwire/models"

	"github.com/stretchr/testify/assert"
)

func TestRecordJSONShape(t *testing.T) {
	record := models.Record{
		Source:  models.LabelCailian,
		TitleZh: "午间要闻",
		Link:    "https://www.cls.cn/detail/42",
		PubDate: time.Date(2024, 3, 1, 4, 5, 6, 0, time.UTC),
	}

	data, err := json.Marshal(record)

	assert.NoError(t, err)
	assert.JSONEq(t, `{"source":"财联社","title_zh":"午间要闻","link":"https://www.cls.cn/detail/42","pubDate":"2024-03-01T04:05:06Z"}`, string(data))
}

func TestRecordKey(t *testing.T) {
	a := models.Record{Source: models.LabelSina, Link: "https://example.com/1"}
	b := models.Record{Source: models.LabelXueqiu, Link: "https://example.com/1"}

	assert.NotEqual(t, a.Key(), b.Key(), "same link from different sources must not collide")
	assert.Equal(t, a.Key(), models.Record{Source: models.LabelSina, Link: "https://example.com/1"}.Key())
}
