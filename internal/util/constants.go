package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// 用户身份来源
const (
	HeaderUserID   = "X-User-ID"
	QueryUserID    = "user_id"
	ContextUserKey = "user_id"

	// MaxUserIDLength 与 user_id 列 varchar(64) 一致，按字符计
	MaxUserIDLength = 64
)

const (
	DefaultRecommendLimit = 5
	MaxRecommendLimit     = 20
)
