package notification

import "strings"

// SMTPConfig holds connection parameters for the SMTP provider.
type SMTPConfig struct {
	Host       string `envconfig:"HOST" json:"host"`
	Port       int    `envconfig:"PORT" default:"587" json:"port"`
	Username   string `envconfig:"USERNAME" json:"username"`
	Password   string `envconfig:"PASSWORD" json:"-"`
	FromAddr   string `envconfig:"FROM" default:"noreply@fileops.local" json:"from_address"`
	ToAddrs    string `envconfig:"TO" json:"to_addresses"`
	Encryption string `envconfig:"ENCRYPTION" default:"starttls" json:"encryption"` // "none", "starttls", "ssl_tls"
}

// Enabled reports whether enough configuration is present to send email.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.FromAddr != ""
}

// Recipients splits the comma-separated ToAddrs list.
func (c SMTPConfig) Recipients() []string {
	out := make([]string, 0)
	for _, r := range strings.Split(c.ToAddrs, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
