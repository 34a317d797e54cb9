package model

// Entry represents a diary entry. CreatedAt and UpdatedAt are milliseconds
// since the Unix epoch and are assigned by the server.
type Entry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Date      string `json:"date"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// EntryRequest is the client payload for creating or replacing an entry.
// Timestamps are never accepted from clients.
type EntryRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// ToEntry converts the request into an Entry without timestamps.
func (r EntryRequest) ToEntry() Entry {
	return Entry{ID: r.ID, Title: r.Title, Content: r.Content, Date: r.Date}
}

// ServerStatus is the payload of the status endpoint.
type ServerStatus struct {
	Status    string `json:"status"`
	Server    string `json:"server"`
	Timestamp string `json:"timestamp"`
}

// Health is the payload of the health endpoint.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Envelope wraps every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
