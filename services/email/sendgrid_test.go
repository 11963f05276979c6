package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/scolarite/core"
)

func TestSendgridService_prepare(t *testing.T) {
	svc := sendgridService{
		from:       sgmail.NewEmail("Scolarité", "noreply@scolarite.test"),
		subjPrefix: "[Scolarité] ",
	}
	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Claire Dupont", Address: "dupont@test.fr"}},
		Bcc:         []mail.Address{{Address: "compta@scolarite.test"}},
		Subject:     "Votre reçu",
		TextContent: "Bonjour",
		HTMLContent: "<p>Bonjour</p>",
	}
	require.NoError(t, msg.Attach(strings.NewReader("Total : 600,00 €"), "recu.txt", "text/plain; charset=utf-8"))

	m := svc.prepare(msg)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Scolarité] Votre reçu", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "dupont@test.fr", p.To[0].Address)
	require.Len(t, p.BCC, 1)
	assert.Equal(t, "noreply@scolarite.test", m.From.Address)
	assert.Len(t, m.Content, 2)

	require.Len(t, m.Attachments, 1)
	at := m.Attachments[0]
	assert.Equal(t, "recu.txt", at.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", at.Type)
	assert.Equal(t, "attachment", at.Disposition)
	assert.Equal(t, msg.Attachments[0].Content.String(), at.Content)
}
