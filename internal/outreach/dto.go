package outreach

type ContactInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"omitempty,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type SignupInput struct {
	Email  string `json:"email" validate:"required,email,max=254"`
	Source string `json:"source" validate:"omitempty,max=64"`
}

type SignupResult struct {
	Message           string `json:"message"`
	AlreadySubscribed bool   `json:"alreadySubscribed"`
}
