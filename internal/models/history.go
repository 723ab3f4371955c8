package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SearchEvent is one dispatched search, stored in PostgreSQL.
type SearchEvent struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	Query          string    `json:"query"`
	SortOrder      string    `json:"sort_order"`
	Total          int       `json:"total"`
	Shown          int       `json:"shown"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	CreatedAt      time.Time `json:"created_at"`
}

// DocumentView is one document page served, stored in MongoDB.
type DocumentView struct {
	ID         primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	RequestID  string             `json:"request_id"  bson:"request_id"`
	DocumentID string             `json:"document_id" bson:"document_id"`
	Available  bool               `json:"available"   bson:"available"`
	Failed     bool               `json:"failed"      bson:"failed"`
	CreatedAt  time.Time          `json:"created_at"  bson:"created_at"`
}
