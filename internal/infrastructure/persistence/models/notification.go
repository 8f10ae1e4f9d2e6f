package models

import "time"

// NewsNotification is a market news item published by the exchange.
type NewsNotification struct {
	ID          int64     `gorm:"column:id;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;size:500" json:"title"`
	Body        string    `gorm:"column:body;type:text" json:"body"`
	PublishedAt time.Time `gorm:"column:published_at;index" json:"publishedAt"`
	Category    string    `gorm:"column:category;size:100" json:"category"`
	Link        string    `gorm:"column:link;size:500" json:"link"`
}

// TableName implements the gorm table-name convention
func (NewsNotification) TableName() string { return "news_notifications" }

// NewsNotificationKey identifies news rows during upsert.
var NewsNotificationKey = &KeyDescriptor[NewsNotification]{Column: "id", Value: func(m *NewsNotification) any { return m.ID }}

// SpotNotification is a spot-market announcement (halts, settlement notices,
// offer amendments) published by the exchange.
type SpotNotification struct {
	ID          int64     `gorm:"column:id;primaryKey" json:"id"`
	Title       string    `gorm:"column:title;size:500" json:"title"`
	Body        string    `gorm:"column:body;type:text" json:"body"`
	PublishedAt time.Time `gorm:"column:published_at;index" json:"publishedAt"`
	Kind        string    `gorm:"column:kind;size:100" json:"kind"`
}

// TableName implements the gorm table-name convention
func (SpotNotification) TableName() string { return "spot_notifications" }

// SpotNotificationKey identifies spot-notification rows during upsert.
var SpotNotificationKey = &KeyDescriptor[SpotNotification]{Column: "id", Value: func(m *SpotNotification) any { return m.ID }}
