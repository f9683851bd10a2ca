package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const verificationHTML = `<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<h2>Confirm your email</h2>
<p>Thanks for signing up. Confirm your address to start shopping:</p>
<p><a href="{{.Link}}">Verify my email</a></p>
<p>This link expires in {{.ValidFor}}.</p>
</body></html>`

const verificationText = `Thanks for signing up.

Confirm your email address by opening this link:
{{.Link}}

This link expires in {{.ValidFor}}.
`

const invitationHTML = `<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<h2>You're invited to sell on the marketplace</h2>
<p><strong>{{.BrandName}}</strong> has been invited to open a brand store.</p>
<p><a href="{{.Link}}">Accept the invitation</a></p>
<p>The invitation expires on {{.ExpiresAt}}.</p>
</body></html>`

const invitationText = `{{.BrandName}} has been invited to open a brand store.

Accept the invitation here:
{{.Link}}

The invitation expires on {{.ExpiresAt}}.
`

var (
	verificationHTMLTmpl = htmltemplate.Must(htmltemplate.New("verification.html").Parse(verificationHTML))
	verificationTextTmpl = texttemplate.Must(texttemplate.New("verification.txt").Parse(verificationText))
	invitationHTMLTmpl   = htmltemplate.Must(htmltemplate.New("invitation.html").Parse(invitationHTML))
	invitationTextTmpl   = texttemplate.Must(texttemplate.New("invitation.txt").Parse(invitationText))
)


func render(html *htmltemplate.Template, text *texttemplate.Template, data any) (string, string, error) {
	var h, t bytes.Buffer
	if err := html.Execute(&h, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", html.Name(), err)
	}
	if err := text.Execute(&t, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", text.Name(), err)
	}
	return h.String(), t.String(), nil
}
