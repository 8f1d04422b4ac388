package emailsvc

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
	"github.com/devnest/devnest/tests"
)

func testConfig() *core.Config {
	return &core.Config{AppName: "DevNest", SiteURL: "https://devnest.test", SendgridApiKey: "SG.key"}
}

func TestAcknowledgementNotifier(t *testing.T) {
	core.ParseEmailTemplates(testutil.Logger{})
	ResetSentMessages()
	schema := testutil.Schema(t, testutil.LoadCatalog(t), "bytebloom")
	n := NewAcknowledgementNotifier(NewConsoleServiceMock(testConfig(), testutil.Logger{}))

	n.SubmissionStored(schema, registration.Record{FullName: "Jane Doe", RollNumber: "241000100"})
	assert.Empty(t, SentMessages)

	n.SubmissionStored(schema, registration.Record{
		FullName:      "Jane Doe",
		Email:         "jane@example.com",
		RollNumber:    "241000100",
		TeamName:      "Nullptr",
		TransactionID: "UTR123",
	})
	require.Len(t, SentMessages, 1)
	msg := SentMessages[0]
	assert.Equal(t, []mail.Address{{Name: "Jane Doe", Address: "jane@example.com"}}, msg.To)
	assert.Contains(t, msg.Subject, schema.Title)
	assert.Contains(t, msg.TextContent, "241000100")
	assert.Contains(t, msg.TextContent, "Nullptr")
	assert.Contains(t, msg.HTMLContent, "Jane Doe")
}

func TestConsoleService_skipsEmptyMessages(t *testing.T) {
	ResetSentMessages()
	svc := NewConsoleServiceMock(testConfig(), testutil.Logger{})

	svc.SendMessages(
		&core.EmailMessage{Subject: "no recipient", BodyStr: "hi"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@b.co"}}, Subject: "no content"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@b.co"}}, Subject: "plain", BodyStr: "hi"},
	)
	require.Len(t, SentMessages, 1)
	assert.Equal(t, "plain", SentMessages[0].Subject)
	assert.Equal(t, "hi", SentMessages[0].TextContent)
}

func TestSendgridService_send(t *testing.T) {
	var (
		mu   sync.Mutex
		body map[string]interface{}
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		auth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	svc := NewSendgridService(testConfig(), testutil.Logger{}).(*sendgridService)
	svc.host = srv.URL
	svc.sendMessage(&core.EmailMessage{
		To:      []mail.Address{{Name: "Jane", Address: "jane@example.com"}},
		Subject: "Hello",
		BodyStr: "plain body",
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer SG.key", auth)
	pers := body["personalizations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "[DevNest] Hello", pers["subject"])
	contents := body["content"].([]interface{})
	require.Len(t, contents, 1)
	assert.Equal(t, "plain body", contents[0].(map[string]interface{})["value"])
}
