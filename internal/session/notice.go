package session

import "time"

// NoticeSource tells where a notice came from
type NoticeSource string

const (
	NoticeServer  NoticeSource = "server"
	NoticeCommand NoticeSource = "command"
)

// Notice is a user-facing problem report
type Notice struct {
	Source   NoticeSource `json:"source"`
	Op       string       `json:"op,omitempty"`
	WindowID string       `json:"window_id,omitempty"`
	Message  string       `json:"message"`
	Time     time.Time    `json:"time"`
}

// NoticeListener receives notices
type NoticeListener func(Notice)
