// Package mail delivers one-time codes over SMTP. [SMTPMailer] implements
// hireAuth.Mailer.
//
// Port 587 style servers are upgraded with STARTTLS when they advertise it;
// Config.Secure selects implicit TLS (port 465). Bodies are HTML rendered from
// html/template, so the code and address are escaped.
package mail
