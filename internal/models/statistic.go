package models

import "time"

// PageView is one recorded successful GET of a public page.
type PageView struct {
	ID        string    `db:"id" json:"id"`
	PageURL   string    `db:"page_url" json:"page_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PageViewCount aggregates views per URL.
type PageViewCount struct {
	PageURL string `db:"page_url" json:"page_url"`
	Views   int    `db:"views" json:"views"`
}

// StatisticsSummary is returned by the admin statistics endpoint.
type StatisticsSummary struct {
	Since      time.Time       `json:"since"`
	TotalViews int             `json:"total_views"`
	Pages      []PageViewCount `json:"pages"`
}
