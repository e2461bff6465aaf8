package model

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one advisor chat turn. Assistant rows only ever hold compliance-emitted text.
type ChatMessage struct {
	UUIDBase
	UserID    uint     `gorm:"index;not null" json:"userId"`
	Role      ChatRole `gorm:"size:20;not null" json:"role"`
	Content   string   `gorm:"type:text;not null" json:"content"`
	Compliant bool     `gorm:"default:true" json:"compliant"`
	Issues    string   `gorm:"size:255" json:"issues,omitempty"`
}

func (ChatMessage) TableName() string {
	return "advisor_chat_messages"
}
