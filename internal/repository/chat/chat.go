package chat

// Message is the durable chat record. Timestamp is unix milliseconds.
type Message struct {
	Id        string `json:"id"`
	SenderId  string `json:"sender_id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type AppendMessageParams struct {
	RoomId  string
	Message Message
}
