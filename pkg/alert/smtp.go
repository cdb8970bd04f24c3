package alert

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/annolab/metahub/dao/model"
	"github.com/annolab/metahub/pkg/config"
)

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender() *SMTPSender {
	smtpConfig := config.GetConfig().SMTP
	return &SMTPSender{
		dialer: gomail.NewDialer(smtpConfig.Host, smtpConfig.Port, smtpConfig.User, smtpConfig.Password),
		from:   smtpConfig.From,
	}
}

func (s *SMTPSender) Send(_ context.Context, n *model.Notification) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", n.Recipient)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Body)
	return s.dialer.DialAndSend(m)
}
