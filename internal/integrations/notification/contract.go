package notification

import "context"

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// EmailSender отправка письма (SendGrid или заглушка)
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMSSender отправка SMS / KakaoTalk сообщения через шлюз
type SMSSender interface {
	Send(ctx context.Context, msg SMSMessage) error
}
