package service

import (
	"context"

	"github.com/bitfantasy/toolroom/internal/tools/entity"
	"go.uber.org/zap"
)

// OrderMail is an order on its way to the supplier, with the spreadsheet
// rendering attached.
type OrderMail struct {
	From           string
	To             string
	Subject        string
	Order          *entity.Order
	Attachment     []byte
	AttachmentName string
}

// Mailer delivers order mails.
type Mailer interface {
	SendOrder(ctx context.Context, mail *OrderMail) error
}

// LogMailer only records the mail in the log. It is the default when no
// delivery is configured.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) SendOrder(ctx context.Context, mail *OrderMail) error {
	m.log.Info("order mail",
		zap.String("from", mail.From),
		zap.String("to", mail.To),
		zap.String("subject", mail.Subject),
		zap.String("order_number", mail.Order.Number),
		zap.Int("positions", len(mail.Order.Positions)),
		zap.String("attachment", mail.AttachmentName),
		zap.Int("attachment_size", len(mail.Attachment)),
	)
	return nil
}
