package emailsvc_test

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/scolarite/core"
	emailsvc "github.com/trezcool/scolarite/services/email"
	"github.com/trezcool/scolarite/tests"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	emailsvc.ResetSentMessages()
	svc := emailsvc.NewConsoleServiceMock(testutil.NewConfig())
	to := []mail.Address{{Name: "Myriam Assas", Address: "a@b.com"}}

	svc.SendMessages(
		&core.EmailMessage{Subject: "no recipient", BodyStr: "lol"},
		&core.EmailMessage{To: to, Subject: "plain", BodyStr: "Bonjour"},
		&core.EmailMessage{
			To:           to,
			Subject:      "templated",
			TemplateName: "pre_registration",
			TemplateData: map[string]interface{}{
				"FamilyName":     "Assas",
				"Messages":       []string{"Othman Assas a été ajouté."},
				"AppointmentDay": "",
			},
		},
	)

	require.Len(t, emailsvc.SentMessages, 2)
	assert.Equal(t, "Bonjour", emailsvc.SentMessages[0].TextContent)

	tmpl := emailsvc.SentMessages[1]
	assert.Contains(t, tmpl.TextContent, "famille Assas")
	assert.Contains(t, tmpl.TextContent, "- Othman Assas a été ajouté.")
	assert.NotContains(t, tmpl.TextContent, "rendez-vous")
	assert.Contains(t, tmpl.HTMLContent, "Assas")
}

func TestConsoleServiceMock_SendMessages_attachment(t *testing.T) {
	emailsvc.ResetSentMessages()
	svc := emailsvc.NewConsoleServiceMock(testutil.NewConfig())

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: "Claire Dupont", Address: "dupont@test.fr"}},
		Subject:      "reçu",
		TemplateName: "registration_receipt",
		TemplateData: map[string]interface{}{"FamilyName": "Dupont", "Total": "600,00 €"},
	}
	require.NoError(t, msg.Attach(strings.NewReader("Total : 600,00 €\n"), "recu.txt"))
	svc.SendMessages(msg)

	require.Len(t, emailsvc.SentMessages, 1)
	sent := emailsvc.SentMessages[0]
	assert.Contains(t, sent.TextContent, "famille Dupont")
	assert.Contains(t, sent.TextContent, "600,00 €")
	require.Len(t, sent.Attachments, 1)
	assert.Equal(t, "recu.txt", sent.Attachments[0].Filename)
	assert.Equal(t, "text/plain; charset=utf-8", sent.Attachments[0].ContentType) // sniffed
	assert.NotEmpty(t, sent.Attachments[0].Content.String())
}
