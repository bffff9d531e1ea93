package mailer

import (
	"fmt"

	"lokanta-backend/internal/config"
	"lokanta-backend/internal/models"

	"gopkg.in/gomail.v2"
)

// Sender: Düşük stok e-postası gönderen arayüz. Testler sahte implementasyon kullanır.
type Sender interface {
	SendLowStockMail(to []string, ingredient models.Ingredient, alert models.StockAlert) error
}

type SMTPMailer struct {
	cfg *config.Config
}

func New(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendLowStockMail(to []string, ingredient models.Ingredient, alert models.StockAlert) error {
	if m.cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP yapılandırılmamış")
	}
	if len(to) == 0 {
		return fmt.Errorf("alıcı listesi boş")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SMTPFrom)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", fmt.Sprintf("Düşük stok uyarısı: %s", ingredient.Name))
	msg.SetBody("text/plain", fmt.Sprintf(
		"%s stoğu eşiğin altına düştü.\n\nMevcut stok: %.2f %s\nEşik: %.2f %s\n\nLütfen tedarik planlayın.",
		ingredient.Name, ingredient.CurrentStock, ingredient.Unit, alert.Threshold, ingredient.Unit,
	))

	dialer := gomail.NewDialer(m.cfg.SMTPHost, m.cfg.SMTPPort, m.cfg.SMTPUser, m.cfg.SMTPPass)
	return dialer.DialAndSend(msg)
}
