package model

// CacheEntry backs the database cache adapter. ExpiresAt is empty for entries without TTL.
type CacheEntry struct {
	CacheKey  string `gorm:"column:cache_key;size:191;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	ExpiresAt string `gorm:"column:expires_at;size:40;not null;default:''"`
	UpdatedAt string `gorm:"column:updated_at;size:40;not null"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}
