package templates

import (
	"bytes"
	"html/template"
)

var legalPage = template.Must(template.New("legal").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
           max-width: 720px; margin: 40px auto; padding: 0 20px; color: #333; line-height: 1.6; }
    h1 { font-size: 28px; }
    h2 { font-size: 20px; margin-top: 32px; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{range .Sections}}
  <h2>{{.Heading}}</h2>
  <p>{{.Body}}</p>
  {{end}}
</body>
</html>`))

type legalSection struct {
	Heading string
	Body    string
}

type legalContent struct {
	Title    string
	Sections []legalSection
}

var privacyContent = legalContent{
	Title: "Privacy Policy",
	Sections: []legalSection{
		{
			Heading: "What this service does",
			Body: "This service relays OAuth authorization codes between a third-party " +
				"provider and the editor extension that requested them. It holds no user accounts.",
		},
		{
			Heading: "What we store",
			Body: "Authorization handoff sessions are stored for at most five minutes and are " +
				"deleted as soon as the extension retrieves them. Access tokens are never stored. " +
				"Client IP addresses may be recorded in security logs for abuse prevention.",
		},
		{
			Heading: "What we share",
			Body: "Nothing. Data is exchanged only with the OAuth provider you chose to connect " +
				"and the extension that initiated the flow.",
		},
	},
}

var termsContent = legalContent{
	Title: "Terms of Service",
	Sections: []legalSection{
		{
			Heading: "Acceptable use",
			Body: "This service exists solely to complete OAuth flows for the associated editor " +
				"extension. Automated abuse, scraping and attempts to retrieve sessions you did " +
				"not create are prohibited and rate limited.",
		},
		{
			Heading: "Availability",
			Body: "The service is provided as-is, without warranty. Sessions expire after five " +
				"minutes regardless of service availability.",
		},
	},
}

// Privacy renders the privacy-policy page.
func Privacy() []byte {
	return renderLegal(privacyContent)
}

// Terms renders the terms-of-service page.
func Terms() []byte {
	return renderLegal(termsContent)
}

func renderLegal(content legalContent) []byte {
	var buf bytes.Buffer
	_ = legalPage.Execute(&buf, content)
	return buf.Bytes()
}
