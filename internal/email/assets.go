package email

// Template codes for the account emails the platform sends.
const (
	VerificationCode  = "email-verification"
	PasswordResetCode = "password-reset"
	PurchaseCode      = "purchase-receipt"
)

type emailTemplate struct {
	Subject string
	Text    string
	HTML    string
}

var builtinTemplates = map[string]emailTemplate{
	VerificationCode: {
		Subject: "Verify your {{ app_name }} email",
		Text:    verificationText,
		HTML:    verificationHTML,
	},
	PasswordResetCode: {
		Subject: "Reset your {{ app_name }} password",
		Text:    passwordResetText,
		HTML:    passwordResetHTML,
	},
	PurchaseCode: {
		Subject: "Your {{ app_name }} ticket for {{ event_name }}",
		Text:    purchaseText,
		HTML:    purchaseHTML,
	},
}

const verificationText = `
Hi {{ name }},

Welcome to {{ app_name }}. Confirm your email address by opening the link
below (expires at {{ expires_at }}):
{{ action_url }}

If you didn't create this account, you can ignore this email.

- The {{ app_name }} Team
`

const verificationHTML = `
<p>Hi {{ name }},</p>
<p>Welcome to {{ app_name }}. Confirm your email address by clicking the
button below (expires at {{ expires_at }}):</p>
<p><a href="{{ action_url }}">Verify email</a></p>
<p>If you didn't create this account, you can ignore this email.</p>
<p>- The {{ app_name }} Team</p>
`

const passwordResetText = `
Hi {{ name }},

We received a request to reset your password.

Click the link below to set a new password (expires at {{ expires_at }}):
{{ action_url }}

If you didn't request this, you can ignore this email.

- The {{ app_name }} Team
`

const passwordResetHTML = `
<p>Hi {{ name }},</p>
<p>We received a request to reset your password.</p>
<p><a href="{{ action_url }}">Reset password</a> (expires at {{ expires_at }})</p>
<p>If you didn't request this, you can ignore this email.</p>
<p>- The {{ app_name }} Team</p>
`

const purchaseText = `
Hi {{ name }},

Your purchase for {{ event_name }} is confirmed{% if quantity %} ({{ quantity }} tickets){% endif %}.

See you there!

- The {{ app_name }} Team
`

const purchaseHTML = `
<p>Hi {{ name }},</p>
<p>Your purchase for {{ event_name }} is confirmed{% if quantity %} ({{ quantity }} tickets){% endif %}.</p>
<p>See you there!</p>
<p>- The {{ app_name }} Team</p>
`
