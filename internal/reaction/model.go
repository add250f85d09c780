package reaction

import "time"

const (
	// TableName 是存放所有计数器的逻辑表名
	TableName = "Reactions"
	// Partition 是所有反应记录共用的分区键，保证每个计数器都落在同一个一致性域内
	Partition = "Content"
)

// ETag is the opaque version token a table mints on every write.
// It is only ever compared for equality.
type ETag string

// ETagAny makes Upsert unconditional.
const ETagAny ETag = "*"

// Record 是唯一持久化的实体：某篇文章的 uplift 计数
type Record struct {
	// PartitionKey 固定为 Partition
	PartitionKey string `gorm:"primaryKey;type:varchar(64)"`

	// RowKey 是文章ID，由内容生产方分配，在分区内唯一
	RowKey string `gorm:"primaryKey;type:varchar(255)"`

	// UpliftCount 只增不减
	UpliftCount int64 `gorm:"not null;default:0"`

	// ETag 和 Timestamp 由表在写入时维护
	ETag      ETag      `gorm:"column:etag;type:varchar(64);not null"`
	Timestamp time.Time `gorm:"column:timestamp"`
}

// TableName maps Record onto the SQL table for the Reactions logical table.
func (Record) TableName() string {
	return "reactions"
}

// ReactResponse is the JSON body of a successful reaction.
type ReactResponse struct {
	UpliftCount int64 `json:"uplift_count"`
}
