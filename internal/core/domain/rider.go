package domain

// Rider is the externally-owned directory record joined into presence and
// history responses for display. The tracking engine reads it, never writes it.
type Rider struct {
	ID    string `json:"id" bson:"_id,omitempty"`
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
}
