package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// ActivationTag tags activation emails at the provider.
const ActivationTag = "activation"

var activationHTML = template.Must(template.New("activation").Parse(`<p>Ahoy {{.Email}},</p>
<p>Someone signed up for SeaComms with this address. Confirm it was you at <a href="{{.URL}}">{{.URL}}</a> to activate the account.</p>
<p>The link expires in {{.Hours}} hours. If you did not sign up, ignore this email.</p>
<p>Fair winds!</p>`))

// ActivationMessage builds the email carrying an account activation link.
// PRE: to is a valid address; link is the absolute activation URL
// POST: Returns a request with HTML and plain-text bodies
func ActivationMessage(to, link string, hours int) (SendRequest, error) {
	var buf bytes.Buffer
	data := struct {
		Email, URL string
		Hours      int
	}{to, link, hours}
	if err := activationHTML.Execute(&buf, data); err != nil {
		return SendRequest{}, fmt.Errorf("render activation email: %w", err)
	}
	return SendRequest{
		To:      []string{to},
		Subject: "Activate your SeaComms account",
		HTML:    buf.String(),
		Text: fmt.Sprintf("Ahoy %s,\n\nSomeone signed up for SeaComms with this address. Confirm it was you at %s to activate the account.\n\nThe link expires in %d hours. If you did not sign up, ignore this email.\n\nFair winds!\n",
			to, link, hours),
		Tag: ActivationTag,
	}, nil
}
