package notification

import (
	"bytes"
	"html/template"
)

// emailTmpl is the HTML layout applied to every outgoing email. Subject and
// Body are auto-escaped; Content is a rendered template HTML body whose
// variables were already escaped by the template engine.
var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:0;background-color:#f4f4f5;
     font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" role="presentation"
         style="background-color:#f4f4f5;padding:40px 16px;">
    <tr>
      <td align="center">
        <table width="600" cellpadding="0" cellspacing="0" role="presentation"
               style="max-width:600px;width:100%;">
          <tr>
            <td style="background-color:#0f172a;padding:24px 40px;border-radius:12px 12px 0 0;">
              <span style="font-size:20px;font-weight:700;color:#ffffff;">FileOps</span>
            </td>
          </tr>
          <tr>
            <td style="background-color:#1e293b;padding:16px 40px;border-left:3px solid #0ea5e9;">
              <p style="margin:0;font-size:15px;font-weight:600;color:#e5e7eb;">{{.Subject}}</p>
            </td>
          </tr>
          <tr>
            <td style="background-color:#ffffff;padding:36px 40px;">
              {{- if .Content}}
              <div style="font-size:14px;line-height:1.7;color:#374151;">{{.Content}}</div>
              {{- else}}
              <div style="font-size:14px;line-height:1.7;color:#374151;
                          white-space:pre-wrap;word-break:break-word;">{{.Body}}</div>
              {{- end}}
            </td>
          </tr>
          <tr>
            <td style="background-color:#f9fafb;padding:20px 40px;
                       border-top:1px solid #e5e7eb;border-radius:0 0 12px 12px;">
              <p style="margin:0;font-size:12px;color:#9ca3af;">
                You are receiving this because email notifications are enabled for your account.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))

// buildEmailHTML renders the HTML layout. When htmlBody is empty the plain
// body is shown instead.
func buildEmailHTML(subject, body, htmlBody string) (string, error) {
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct {
		Subject string
		Body    string
		//nolint:gosec // rendered by the template engine, which escapes every variable
		Content template.HTML
	}{subject, body, template.HTML(htmlBody)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
