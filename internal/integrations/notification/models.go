package notification

// EmailMessage письмо клиенту
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// SMSMessage сообщение на телефон; Channel = sms или kakao
type SMSMessage struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Channel string `json:"channel"`
	Text    string `json:"text"`
}
