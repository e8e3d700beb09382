package message

import "time"

type Message struct {
	ID        int64     `json:"id" validate:"required,gt=0"`
	From      string    `json:"from"`
	Subject   string    `json:"subject"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
