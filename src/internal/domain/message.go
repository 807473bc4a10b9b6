package domain

const MaxMessageLength = 512

type Message struct {
	ID          int
	RecipientID int
	Text        string
	Viewed      bool
}
