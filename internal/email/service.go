package email

import (
	"context"
	"fmt"
)

// Service handles email composition and sending.
type Service struct {
	sender      Sender
	fromAddress string
	fromName    string
	adminEmail  string
	templates   *renderedTemplates
}

// NewService creates a new email service.
func NewService(sender Sender, fromAddress, fromName, adminEmail string) (*Service, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Service{
		sender:      sender,
		fromAddress: fromAddress,
		fromName:    fromName,
		adminEmail:  adminEmail,
		templates:   tmpl,
	}, nil
}

func (s *Service) from() string {
	if s.fromName != "" {
		return fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
	}
	return s.fromAddress
}

// SendOrderConfirmation sends an order confirmation email, optionally with
// the PDF invoice attached.
func (s *Service) SendOrderConfirmation(ctx context.Context, to string, data OrderConfirmationData, invoicePDF []byte) error {
	htmlBody, err := render(s.templates.confirmationHTML, data)
	if err != nil {
		return err
	}
	textBody, err := render(s.templates.confirmationText, data)
	if err != nil {
		return err
	}

	msg := &Email{
		To:       []string{to},
		From:     s.from(),
		Subject:  fmt.Sprintf("Order %s confirmed", data.OrderNumber),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	if len(invoicePDF) > 0 {
		msg.Attachments = []Attachment{{
			Filename:    fmt.Sprintf("invoice-%s.pdf", data.OrderNumber),
			ContentType: "application/pdf",
			Content:     invoicePDF,
		}}
	}

	if _, err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send order confirmation email: %w", err)
	}
	return nil
}

// SendStatusUpdate notifies the customer of an order status change.
func (s *Service) SendStatusUpdate(ctx context.Context, to string, data StatusUpdateData) error {
	htmlBody, err := render(s.templates.statusHTML, data)
	if err != nil {
		return err
	}
	textBody, err := render(s.templates.statusText, data)
	if err != nil {
		return err
	}

	msg := &Email{
		To:       []string{to},
		From:     s.from(),
		Subject:  fmt.Sprintf("Order %s is %s", data.OrderNumber, data.Status),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
	if _, err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send status update email: %w", err)
	}
	return nil
}

// SendAdminAlert sends an operational alert (new order, low stock) to the
// configured admin address. No-op when no admin address is configured.
func (s *Service) SendAdminAlert(ctx context.Context, data AdminAlertData) error {
	if s.adminEmail == "" {
		return nil
	}

	textBody, err := render(s.templates.adminText, data)
	if err != nil {
		return err
	}

	msg := &Email{
		To:       []string{s.adminEmail},
		From:     s.from(),
		Subject:  data.Subject,
		TextBody: textBody,
	}
	if _, err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send admin alert email: %w", err)
	}
	return nil
}
