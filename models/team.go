package models

import "time"

type Team struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ShortCode string    `json:"short_code"`
	CrestKey  *string   `json:"-"`
	CrestURL  *string   `json:"crest_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
