// Package templates holds the notification template registry and the
// placeholder renderer used for in-app and email content.
package templates

// TypeCustom marks a template that is not bound to a built-in notification type.
const TypeCustom = "custom"

// Template is a parameterized definition of notification content.
// Variables lists the placeholders callers are expected to supply; it is
// advisory and never enforced by Render.
type Template struct {
	ID        string   `json:"id" yaml:"id"`
	Type      string   `json:"type" yaml:"type"`
	Name      string   `json:"name" yaml:"name"`
	Subject   string   `json:"subject" yaml:"subject"`
	Body      string   `json:"body" yaml:"body"`
	HTMLBody  string   `json:"htmlBody,omitempty" yaml:"html_body"`
	Channels  []string `json:"channels" yaml:"channels"`
	Variables []string `json:"variables" yaml:"variables"`
}

// Rendered is the output of rendering a template.
type Rendered struct {
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody"`
}

// builtins returns one template per built-in notification type. The template
// id equals the notification type.
func builtins() []Template {
	return []Template{
		{
			ID:       "file_uploaded",
			Type:     "file_uploaded",
			Name:     "File uploaded",
			Subject:  "File uploaded: {{fileName}}",
			Body:     "Hi {{userName}}, your file {{fileName}} ({{fileSize}}) was uploaded successfully.",
			HTMLBody: "<p>Hi {{userName}},</p><p>Your file <strong>{{fileName}}</strong> ({{fileSize}}) was uploaded successfully.</p>",
			Channels: []string{"in_app", "email"},
			Variables: []string{
				"userName", "fileName", "fileSize",
			},
		},
		{
			ID:       "file_processed",
			Type:     "file_processed",
			Name:     "File processed",
			Subject:  "Processing complete: {{fileName}}",
			Body:     "Hi {{userName}}, {{fileName}} finished processing in {{duration}}.",
			HTMLBody: "<p>Hi {{userName}},</p><p><strong>{{fileName}}</strong> finished processing in {{duration}}.</p>",
			Channels: []string{"in_app", "email"},
			Variables: []string{
				"userName", "fileName", "duration",
			},
		},
		{
			ID:       "processing_failed",
			Type:     "processing_failed",
			Name:     "Processing failed",
			Subject:  "Processing failed: {{fileName}}",
			Body:     "Hi {{userName}}, processing of {{fileName}} failed: {{errorMessage}}",
			HTMLBody: "<p>Hi {{userName}},</p><p>Processing of <strong>{{fileName}}</strong> failed.</p><pre>{{errorMessage}}</pre>",
			Channels: []string{"in_app", "email"},
			Variables: []string{
				"userName", "fileName", "errorMessage",
			},
		},
		{
			ID:       "file_shared",
			Type:     "file_shared",
			Name:     "File shared",
			Subject:  "{{sharedBy}} shared {{fileName}} with you",
			Body:     "Hi {{userName}}, {{sharedBy}} shared {{fileName}} with you ({{permission}} access).",
			HTMLBody: "<p>Hi {{userName}},</p><p>{{sharedBy}} shared <strong>{{fileName}}</strong> with you ({{permission}} access).</p>",
			Channels: []string{"in_app", "email"},
			Variables: []string{
				"userName", "sharedBy", "fileName", "permission",
			},
		},
		{
			ID:       "system_alert",
			Type:     "system_alert",
			Name:     "System alert",
			Subject:  "[{{severity}}] {{title}}",
			Body:     "{{message}}",
			HTMLBody: "<p><strong>{{title}}</strong></p><p>{{message}}</p>",
			Channels: []string{"in_app", "email"},
			Variables: []string{
				"severity", "title", "message",
			},
		},
	}
}
