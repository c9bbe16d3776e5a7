package emailsvc

import (
	"bytes"
	"io/ioutil"
	"log"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kurswahl/core"
	logsvc "github.com/trezcool/kurswahl/services/logger"
)

func TestConsoleService_SendMessages(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	core.ParseEmailTemplates(logger, true)

	var out bytes.Buffer
	svc := NewConsoleService(&out, logger, conf)
	svc.blocking = true

	roster := &core.EmailMessage{
		To:           []mail.Address{{Name: "Frau Holz", Address: "holz@school.test"}},
		Subject:      "Holz: 2025-2026 T1 (band1)",
		TemplateName: "roster",
		TemplateData: map[string]interface{}{
			"AppName":  conf.AppName,
			"Teacher":  "Frau Holz",
			"Workshop": "Holz",
			"Slot":     "2025-2026 T1",
			"Band":     "band1",
			"Students": []string{"Anna", "Ben"},
			"Capacity": 12,
		},
	}
	noRecipient := &core.EmailMessage{Subject: "lost", BodyStr: "nobody reads this"}
	svc.SendMessages(roster, noRecipient)

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Hello Frau Holz")
	assert.Contains(t, sent[0].TextContent, "- Ben")
	assert.Contains(t, sent[0].TextContent, "2 of 12 places are taken.")
	assert.Contains(t, sent[0].HTMLContent, "<li>Anna</li>")

	written := out.String()
	assert.True(t, strings.Contains(written, "Subject: [Kurswahl] Holz: 2025-2026 T1 (band1)"))
	assert.Contains(t, written, "To: \"Frau Holz\" <holz@school.test>")
}

func TestConsoleServiceMock_Silent(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)

	svc := NewConsoleServiceMock(logger, conf)
	svc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: "room@school.test"}},
		Subject: "plain",
		BodyStr: "plain body",
	})

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "plain body", sent[0].TextContent)
	assert.Empty(t, sent[0].HTMLContent)
}
