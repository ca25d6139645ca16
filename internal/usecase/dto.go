package usecase

type CreateInquiryInput struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone,omitempty"`
	Message   string  `json:"message"`
	SourceURL *string `json:"sourceUrl,omitempty"`
}

type CreateInquiryOutput struct {
	ID string `json:"id"`
}

type ConvertInquiryOutput struct {
	LeadID  string `json:"lead_id"`
	StageID string `json:"stage_id"`
}
