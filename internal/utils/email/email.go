package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/pesalink/loan-service/internal/config"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}

// SendDisbursementNotice notifies the borrower their loan has been paid out
func (s *Sender) SendDisbursementNotice(to, name string, loanID string, amount float64, dueDate time.Time) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Loan Disbursement Notification"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your loan %s has been disbursed. An amount of %.2f has been sent to your mobile wallet.\n"+
			"Full repayment is due on %s.\n"+
			"\nBest regards,\nPesaLink Loans",
		name, loanID, amount, dueDate.Format("2006-01-02"),
	)
	e.Text = []byte(body)
	return s.send(e)
}

// SendRepaymentReceipt confirms a repayment and the remaining balance
func (s *Sender) SendRepaymentReceipt(to, name string, loanID string, amount, outstanding float64, completed bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Repayment Received"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"We received your repayment of %.2f towards loan %s.\n"+
			"Transaction time: %s\n",
		name, amount, loanID, time.Now().Format("2006-01-02 15:04:05"),
	)
	if completed {
		body += "Your loan is now fully repaid. Thank you!\n"
	} else {
		body += fmt.Sprintf("Outstanding balance: %.2f\n", outstanding)
	}
	body += "\nBest regards,\nPesaLink Loans"
	e.Text = []byte(body)
	return s.send(e)
}

// SendOverdueNotice warns the borrower about an overdue or defaulted loan
func (s *Sender) SendOverdueNotice(to, name string, loanID string, outstanding float64, dueDate time.Time, defaulted bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if defaulted {
		e.Subject = "Loan Default Notification"
	} else {
		e.Subject = "Overdue Loan Payment Reminder"
	}

	body := fmt.Sprintf(
		"Dear %s,\n\n", name,
	)
	if defaulted {
		body += fmt.Sprintf(
			"Your loan %s with an outstanding balance of %.2f was due on %s and has been marked as defaulted.\n"+
				"A credit-score penalty has been applied. Please contact support to arrange settlement.\n",
			loanID, outstanding, dueDate.Format("2006-01-02"),
		)
	} else {
		body += fmt.Sprintf(
			"Your loan %s was due on %s. The outstanding balance is %.2f.\n"+
				"Please make the payment as soon as possible to protect your credit score.\n",
			loanID, dueDate.Format("2006-01-02"), outstanding,
		)
	}
	body += "\nBest regards,\nPesaLink Loans"
	e.Text = []byte(body)
	return s.send(e)
}
