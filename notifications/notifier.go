package notifications

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fleetdocs/fleetdocs-api/models"
	templates "github.com/fleetdocs/fleetdocs-api/templates/html"
)

// Notifier applies the expiry policy to a document and dispatches reminders
// through the configured gateways. It is shared by the background scanner
// and the synchronous notify-on-create/renew path, so both fire identically.
//
// Nothing is persisted about what was sent: running the same scan twice on
// the same day sends twice. Delivery failures are logged and swallowed; the
// reminder sweep is best effort.
type Notifier struct {
	Policy     Policy
	Mailer     Mailer
	SMS        SMSSender
	BaseURL    string
	LinkSecret string
}

// Notify evaluates doc against the policy and sends the eligible reminders
// to the owning user. Returns which channels were actually delivered.
func (n *Notifier) Notify(doc models.Document, vehicle models.Vehicle, user models.User, now time.Time) (emailed, smsed bool) {
	if doc.EndDate == 0 {
		// missing end date, nothing to evaluate
		return false, false
	}
	if !user.NotificationsEnabled {
		return false, false
	}

	decision := n.Policy.Evaluate(doc.EndDate.Time(), now)
	expiryDate := doc.EndDate.Time().UTC().Format("2006-01-02")

	if decision.Email && user.Email != "" {
		link := RenewalLink(n.BaseURL, doc.ID.Hex(), n.LinkSecret, now)
		subject := fmt.Sprintf("%s expiring soon: %s", doc.DocumentType, vehicle.Name)
		plainText := fmt.Sprintf(
			"Your %s for vehicle %s (%s) expires on %s. Renew it here: %s",
			doc.DocumentType, vehicle.Name, vehicle.VehicleNumber, expiryDate, link,
		)
		htmlContent := templates.RenderExpiryReminderEmail(
			string(doc.DocumentType), vehicle.Name, vehicle.VehicleNumber, expiryDate, link, decision.DaysLeft,
		)
		if err := n.Mailer.SendEmail(subject, []string{user.Email}, plainText, htmlContent); err != nil {
			zap.S().Errorw("failed to send expiry reminder email",
				"documentId", doc.ID.Hex(),
				"error", err,
			)
		} else {
			emailed = true
		}
	}

	if decision.SMS && user.Phone != "" {
		body := fmt.Sprintf(
			"FleetDocs: %s for %s (%s) expires on %s. Please renew it.",
			doc.DocumentType, vehicle.Name, vehicle.VehicleNumber, expiryDate,
		)
		sid, err := n.SMS.SendSMS(user.Phone, body)
		if err != nil {
			zap.S().Errorw("failed to send expiry reminder sms",
				"documentId", doc.ID.Hex(),
				"error", err,
			)
		} else {
			zap.S().Debugw("expiry reminder sms sent", "documentId", doc.ID.Hex(), "sid", sid)
			smsed = true
		}
	}

	return emailed, smsed
}
