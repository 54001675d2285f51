package email

import (
	"fmt"
	"time"

	"github.com/medicare-hq/medicare-api/internal/model"
)

// Templates for the role-specific notification content attached to state
// transitions.

func WelcomeBody(firstName string) (subject, content string) {
	if firstName == "" {
		firstName = "there"
	}
	subject = "Welcome to Medicare"
	content = fmt.Sprintf(`<h2>Hi %s!</h2>
<p>Your account has been created successfully. You can now log in and book appointments with ease.</p>
<p>Thank you for joining our healthcare journey!</p>`, firstName)
	return subject, content
}

func BookingConfirmationBody(firstName string, apt *model.Appointment) (subject, content string) {
	subject = "Appointment Booked"
	content = fmt.Sprintf(`<h2>Appointment Booked</h2>
<p>Hi %s,</p>
<p>Your appointment #%d on %s (%s) has been booked and is pending confirmation.</p>
<p>Amount due: <strong>Ksh %.2f</strong></p>`,
		firstName, apt.ID, apt.AppointmentDate.Format("2006-01-02"), apt.TimeSlot, apt.TotalAmount)
	return subject, content
}

func StatusChangeBody(firstName string, apt *model.Appointment) (subject, content string) {
	subject = fmt.Sprintf("Appointment %s", apt.Status)
	content = fmt.Sprintf(`<h2>Appointment Update</h2>
<p>Hi %s,</p>
<p>Your appointment #%d on %s (%s) is now <strong>%s</strong>.</p>`,
		firstName, apt.ID, apt.AppointmentDate.Format("2006-01-02"), apt.TimeSlot, apt.Status)
	return subject, content
}

func CancellationBody(firstName string, apt *model.Appointment) (subject, content string) {
	subject = "Appointment Cancelled"
	content = fmt.Sprintf(`<h2>Appointment Cancelled</h2>
<p>Hi %s,</p>
<p>Appointment #%d on %s (%s) has been cancelled.</p>`,
		firstName, apt.ID, apt.AppointmentDate.Format("2006-01-02"), apt.TimeSlot)
	return subject, content
}

func PaymentReceivedBody(firstName string, amount float64, appointmentID int64) (subject, content string) {
	subject = "Payment Confirmation"
	content = fmt.Sprintf(`<h2>Payment Received</h2>
<p>Hi %s,</p>
<p>Your payment of <strong>Ksh %.2f</strong> for appointment #%d has been recorded.</p>
<p>Thank you for using Medicare!</p>`, firstName, amount, appointmentID)
	return subject, content
}

func PaymentConfirmedBody(firstName string, apt *model.Appointment, amount float64, transactionID string) (subject, content string) {
	subject = "Payment & Appointment Confirmed"
	content = fmt.Sprintf(`<h2>Appointment Confirmed!</h2>
<p>Hi %s,</p>
<p>We've received your payment of <strong>Ksh %.2f</strong> for appointment #%d.</p>
<ul>
<li>Date: %s</li>
<li>Time: %s</li>
<li>Status: %s</li>
</ul>
<p>Your booking is now confirmed and paid. We look forward to seeing you!</p>
<hr>
<p><small>Transaction ID: %s • %s</small></p>`,
		firstName, amount, apt.ID,
		apt.AppointmentDate.Format("2006-01-02"), apt.TimeSlot, apt.Status,
		transactionID, time.Now().Format(time.RFC1123))
	return subject, content
}
