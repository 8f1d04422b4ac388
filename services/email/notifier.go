package emailsvc

import (
	"net/mail"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
)

const registrationReceivedTemplate = "registration_received"

type registrationData struct {
	Event         string
	FullName      string
	RollNumber    string
	TeamName      string
	TransactionID string
}

// AcknowledgementNotifier emails registrants once their submission is stored.
type AcknowledgementNotifier struct {
	mailSvc core.EmailService
}

var _ registration.Notifier = (*AcknowledgementNotifier)(nil)

func NewAcknowledgementNotifier(mailSvc core.EmailService) *AcknowledgementNotifier {
	return &AcknowledgementNotifier{mailSvc: mailSvc}
}

func (n *AcknowledgementNotifier) SubmissionStored(schema *registration.EventSchema, rec registration.Record) {
	if rec.Email == "" {
		return
	}
	n.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: rec.FullName, Address: rec.Email}},
		Subject:      "Registration received: " + schema.Title,
		TemplateName: registrationReceivedTemplate,
		TemplateData: registrationData{
			Event:         schema.Title,
			FullName:      rec.FullName,
			RollNumber:    rec.RollNumber,
			TeamName:      rec.TeamName,
			TransactionID: rec.TransactionID,
		},
	})
}
