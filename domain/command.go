package domain

import "time"

type PostMessageCommand struct {
	Room      RoomID
	Sender    Principal
	Content   string
	CreatedAt time.Time
}

type GetMessagesCommand struct {
	Room   RoomID
	Cursor *string
}
