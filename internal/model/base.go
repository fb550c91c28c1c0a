package model

import (
	"github.com/google/uuid"
)

// DefaultUserID 未携带身份信息时使用的占位用户，只在接入层使用
const DefaultUserID = "default_user"

func GenerateUUID() string {
	return uuid.New().String()
}
