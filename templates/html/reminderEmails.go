package templates

import "fmt"

// RenderExpiryReminderEmail generates the HTML body for a document expiry
// reminder. expiryDate is expected pre-formatted (ISO date).
func RenderExpiryReminderEmail(documentType, vehicleName, vehicleNumber, expiryDate, renewalLink string, daysLeft int) string {
	when := fmt.Sprintf("in %d days", daysLeft)
	if daysLeft == 0 {
		when = "today"
	} else if daysLeft == 1 {
		when = "tomorrow"
	}
	body := fmt.Sprintf(
		"Your %s for vehicle %s (%s) expires %s, on %s.\n\nRenew it here: %s",
		documentType, vehicleName, vehicleNumber, when, expiryDate, renewalLink,
	)
	return RenderGenericEmail(fmt.Sprintf("%s Expiry Reminder", documentType), body)
}

// RenderCode generates the HTML body for a one-time verification code email
func RenderCode(code string) string {
	body := fmt.Sprintf(
		"Your verification code is: %s\n\nThis code is valid for 10 minutes and can only be used once.",
		code,
	)
	return RenderGenericEmail("Your FleetDocs Verification Code", body)
}
