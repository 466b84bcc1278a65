package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

// The message bodies are rendered from inline templates so the binary is
// self-contained. html/template escapes the injected values, so a
// user-controlled display name cannot smuggle markup into the mail.

var (
	verificationTmpl = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Verify your email address</h2>
  <p>Hi {{.Name}},</p>
  <p>Thanks for signing up for AdyaNews. Enter this code to verify your email address:</p>
  <p style="font-size: 32px; font-weight: bold; letter-spacing: 8px; text-align: center;">{{.Code}}</p>
  <p>The code expires in 24 hours. If you didn't create an account, you can ignore this email.</p>
</div>`))

	welcomeTmpl = template.Must(template.New("welcome").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome to AdyaNews!</h2>
  <p>Hi {{.Name}},</p>
  <p>Your email address has been verified. Pick your language and interests to start
  getting news that matters to you.</p>
</div>`))

	resetTmpl = template.Must(template.New("reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Reset your password</h2>
  <p>Hi {{.Name}},</p>
  <p>We received a request to reset your password. Click the button below to choose a new one:</p>
  <p style="text-align: center;">
    <a href="{{.Link}}" style="display: inline-block; padding: 12px 24px; background: #1a73e8; color: #fff; text-decoration: none; border-radius: 4px;">Reset password</a>
  </p>
  <p>The link expires in 1 hour. If you didn't request a reset, you can ignore this email.</p>
</div>`))

	resetDoneTmpl = template.Must(template.New("resetDone").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Your password was changed</h2>
  <p>Hi {{.Name}},</p>
  <p>Your AdyaNews password was just changed. If this wasn't you, reset your password
  immediately and contact support.</p>
</div>`))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: rendering %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// VerificationMessage builds the verification-code email.
func VerificationMessage(name, code string) (subject, body string, err error) {
	body, err = render(verificationTmpl, map[string]string{"Name": name, "Code": code})
	return "Verify your AdyaNews account", body, err
}

// WelcomeMessage builds the post-verification welcome email.
func WelcomeMessage(name string) (subject, body string, err error) {
	body, err = render(welcomeTmpl, map[string]string{"Name": name})
	return "Welcome to AdyaNews", body, err
}

// ResetMessage builds the password-reset email. link is the full
// client-side reset URL including the token.
func ResetMessage(name, link string) (subject, body string, err error) {
	body, err = render(resetTmpl, map[string]string{"Name": name, "Link": link})
	return "Reset your AdyaNews password", body, err
}

// ResetDoneMessage builds the reset-confirmation email.
func ResetDoneMessage(name string) (subject, body string, err error) {
	body, err = render(resetDoneTmpl, map[string]string{"Name": name})
	return "Your AdyaNews password was changed", body, err
}
