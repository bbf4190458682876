package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func testConf() *core.Config {
	conf := &core.Config{AppName: "Gradebook"}
	conf.SetDefaultFromEmail("Gradebook <noreply@school.my>")
	return conf
}

func TestConsoleServiceMock(t *testing.T) {
	ClearSentMessages()
	svc := NewConsoleServiceMock(testConf(), nopLogger{})

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Siti", Address: "siti@school.my"}},
			Subject:      "Password Reset",
			TemplateName: "password_reset",
			TemplateData: map[string]interface{}{"Name": "Siti", "Link": "http://localhost/reset"},
		},
		// no recipients
		&core.EmailMessage{Subject: "dropped", BodyStr: "hello"},
	)

	require.Len(t, SentMessages, 1)
	msg, ok := LastSentMessage()
	require.True(t, ok)
	assert.Equal(t, "Password Reset", msg.Subject)
	assert.Contains(t, msg.TextContent, "http://localhost/reset")
	assert.Contains(t, msg.HTMLContent, "http://localhost/reset")

	ClearSentMessages()
	_, ok = LastSentMessage()
	assert.False(t, ok)
}

func TestSendgridPrepare(t *testing.T) {
	svc := NewSendgridService(testConf(), nopLogger{})
	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Siti", Address: "siti@school.my"}},
		Cc:          []mail.Address{{Address: "head@school.my"}},
		Subject:     "Hello",
		TextContent: "hi",
	})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Gradebook] Hello", m.Personalizations[0].Subject)
	assert.Equal(t, "siti@school.my", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "head@school.my", m.Personalizations[0].CC[0].Address)
	assert.Equal(t, "noreply@school.my", m.From.Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
}
