package mail

import (
	"bytes"
	"html/template"
	"time"
)

var bodies = template.Must(template.New("mail").Parse(`
{{- define "verification" -}}
<h1>Welcome to {{.Product}}!</h1>
<p>Your verification code is: <strong>{{.Code}}</strong></p>
<p>This code will expire in {{.Minutes}} minutes.</p>
<p>If you didn't request this verification, please ignore this email.</p>
{{- end -}}
{{- define "password_reset" -}}
<h1>Password Reset Request</h1>
<p>Your password reset code is: <strong>{{.Code}}</strong></p>
<p>This code will expire in {{.Minutes}} minutes.</p>
<p>If you didn't request this password reset, please ignore this email and ensure your account is secure.</p>
{{- end -}}
`))

type bodyData struct {
	Product string
	Code    string
	Minutes int
}

// minutes rounds ttl up to whole minutes, never below one.
func minutes(ttl time.Duration) int {
	m := int((ttl + time.Minute - 1) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

func render(name string, data bodyData) (string, error) {
	var buf bytes.Buffer
	if err := bodies.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
