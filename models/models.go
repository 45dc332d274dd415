package models

import "time"

// Source labels as they appear in the published feed. Downstream consumers
// key on these names, so they stay in Chinese.
const (
	LabelCailian = "财联社"
	LabelSina    = "新浪财经"
	LabelCninfo  = "巨潮资讯"
	LabelXueqiu  = "雪球"
)

// Record is one normalized news item. Adapters build records once and nothing
// mutates them afterwards.
type Record struct {
	Source  string    `json:"source"`
	TitleZh string    `json:"title_zh"`
	Link    string    `json:"link"`
	PubDate time.Time `json:"pubDate"`
}

// Key identifies a record for deduplication. Links are only unique within a
// single upstream, so the source label is part of the key.
type Key struct {
	Source string
	Link   string
}

func (r Record) Key() Key {
	return Key{Source: r.Source, Link: r.Link}
}

// FetchResult is the outcome of one source's fetch attempt. When Err is set
// the source degraded for this run and Records carries whatever it could
// still assemble, usually nothing.
type FetchResult struct {
	Source  string
	Records []Record
	Err     error
	Elapsed time.Duration
}

func (r FetchResult) Degraded() bool {
	return r.Err != nil
}
