package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studioconnect/relay/internal/interfaces/http/templates"
)

func TestSuccessPage(t *testing.T) {
	page := string(templates.Success())
	assert.Contains(t, page, "Authentication Successful")
	assert.Contains(t, page, "close this window")
}

func TestErrorPageEscapesMessage(t *testing.T) {
	page := string(templates.Error(`<script>alert("x")</script>`))
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "&lt;script&gt;")
}

func TestLegalPages(t *testing.T) {
	privacy := string(templates.Privacy())
	assert.Contains(t, privacy, "Privacy Policy")

	terms := string(templates.Terms())
	assert.Contains(t, terms, "Terms of Service")
}
