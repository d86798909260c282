package domain

const (
	MailTypeCreateUser      = "create_user"
	MailTypeRosterGenerated = "roster_generated"
	MailTypeRosterFailed    = "roster_failed"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RosterGeneratedMailData struct {
	FullName string  `json:"fullName"`
	WardName string  `json:"wardName"`
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Version  int32   `json:"version"`
	Score    float64 `json:"score"`
}

type RosterFailedMailData struct {
	FullName string `json:"fullName"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Reason   string `json:"reason"`
}
