package domain

type User struct {
	ID        int64
	Username  string
	CreatedAt int64
}

type Channel struct {
	ID        int64
	UserID    int64
	URL       string
	Keywords  []string
	Active    bool
	CreatedAt int64
}

type Post struct {
	Text        string
	URL         string
	ChannelID   int64
	ChannelURL  string
	PublishedAt int64
}

// SummaryRecord is an immutable log entry written once per completed
// summarization attempt, successful or not.
type SummaryRecord struct {
	ID           int64
	UserID       int64
	OriginalText string
	SummaryText  string
	CreatedAt    int64
}
