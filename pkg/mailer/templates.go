package mailer

import (
	"fmt"
	"html"
)

// OTPValidityMinutes is how long a registration code stays usable.
const OTPValidityMinutes = 10

// OTPMessage builds the registration code email.
func OTPMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "OTP for RB Hardware Registration",
		Text:    fmt.Sprintf("Your OTP for registration is %s. It will expire in %d minutes.", code, OTPValidityMinutes),
	}
}

// ResetPasswordMessage builds the password reset email carrying link.
func ResetPasswordMessage(to, link string) Message {
	escaped := html.EscapeString(link)
	return Message{
		To:      to,
		Subject: "Reset Password",
		Text:    fmt.Sprintf("Reset your password using this link: %s. The link expires in 1 hour.", link),
		HTML: fmt.Sprintf(`<p>You requested a password reset.</p>
<p><a href="%s">Click here to reset your password</a></p>
<p>This link expires in 1 hour. If you did not request it, ignore this email.</p>`, escaped),
	}
}
