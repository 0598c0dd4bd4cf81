package smtp

import (
	"fmt"
	"time"

	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Client sends festival mail: sign-in codes and push notifications on the
// email channel.
type Client struct {
	dialer *gomail.Dialer
	from   string
	domain string
	logger *types.Logger
}

func NewClient(dialer *gomail.Dialer, from, domain string, logger *types.Logger) *Client {
	return &Client{dialer: dialer, from: from, domain: domain, logger: logger}
}

// SendConfirmationEmail delivers a sign-in code.
func (c *Client) SendConfirmationEmail(to string, code string) error {
	msg := c.message(to, "Your festival sign-in code")
	msg.SetBody("text/plain", fmt.Sprintf("Your sign-in code is %s. It expires in a few minutes.", code))
	msg.AddAlternative("text/html", fmt.Sprintf("<p>Your sign-in code is <b>%s</b>.</p>", code))
	if err := c.dialer.DialAndSend(msg); err != nil {
		return err
	}
	c.logger.Infof("Sign-in code sent (to=%s)", to)
	return nil
}

// SendNotification delivers a plain text notification.
func (c *Client) SendNotification(to, subject, body string) error {
	msg := c.message(to, subject)
	msg.SetBody("text/plain", body)
	return c.dialer.DialAndSend(msg)
}

func (c *Client) message(to, subject string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("Message-ID", generateMessageID(c.domain))
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", c.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	return msg
}

func generateMessageID(domain string) string {
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}
