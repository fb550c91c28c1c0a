package model

import "time"

type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// Turn 对话中的一轮发言
type Turn struct {
	Role TurnRole `json:"role"`
	Text string   `json:"text"`
}

// DialogueSession 情景对话会话。删除为物理删除，没有 DeletedAt
type DialogueSession struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"sessionId"`
	UserID    string    `gorm:"type:varchar(64);index;not null" json:"userId"`
	Scenario  string    `gorm:"type:varchar(64)" json:"scenario"`
	History   []Turn    `gorm:"type:json;serializer:json" json:"history"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (DialogueSession) TableName() string {
	return "dialogue_sessions"
}

// LastTurns 返回最近 n 轮发言的副本
func (s *DialogueSession) LastTurns(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.History)-start)
	copy(out, s.History[start:])
	return out
}
