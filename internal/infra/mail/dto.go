package mail

type InquiryEmailData struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	SourceURL    string
	Message      string
	ReceivedAt   string
	DashboardURL string
}

type EmailSender struct {
	Host         string
	Port         int
	User         string
	Password     string
	From         string
	To           []string
	DashboardURL string
	dialer       Dialer
}
