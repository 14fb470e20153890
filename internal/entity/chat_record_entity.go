package entity

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

type ChatRecord struct {
	Id        uint64
	SessionId string
	Role      string
	Content   string
	Model     *string
	Timestamp int64
}
