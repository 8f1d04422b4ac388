package notify

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devnest/devnest/core/registration"
	"github.com/devnest/devnest/tests"
)

type fakeSender struct {
	name string
	err  error
	sent []string
}

func (s *fakeSender) Name() string { return s.name }

func (s *fakeSender) Send(text string) error {
	s.sent = append(s.sent, text)
	return s.err
}

type recordingLogger struct {
	testutil.Logger
	errors []string
}

func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }

func record() registration.Record {
	return registration.Record{
		SubmittedAt:      "2026-03-01T05:00:00Z",
		FullName:         "Jane Doe",
		RollNumber:       "241000100",
		Department:       "CSE",
		TeamName:         "Nullptr",
		Participant2Roll: "241000101",
		TransactionID:    "UTR123",
	}
}

func TestFormatSubmission(t *testing.T) {
	cat := testutil.LoadCatalog(t)

	tests := []struct {
		name  string
		event string
		rec   registration.Record
		want  string
	}{
		{
			name:  "team",
			event: "bytebloom",
			rec:   record(),
			want: "New registration: ByteBloom Hackfest\n" +
				"Jane Doe (241000100), CSE\n" +
				"Team: Nullptr\n" +
				"Members: 241000101\n" +
				"Transaction: UTR123\n" +
				"At: 2026-03-01T05:00:00Z",
		},
		{
			name:  "individual",
			event: "guest-speaker",
			rec:   registration.Record{SubmittedAt: "t", FullName: "Jane", RollNumber: "r1"},
			want:  "New registration: Guest Speaker Session\nJane (r1)\nAt: t",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSubmission(testutil.Schema(t, cat, tt.event), tt.rec)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlerter_SubmissionStored(t *testing.T) {
	logger := new(recordingLogger)
	ok := &fakeSender{name: "ok"}
	broken := &fakeSender{name: "broken", err: errors.New("boom")}
	a := NewAlerter(logger, ok, broken)
	a.sync = true

	assert.False(t, a.Empty())
	assert.True(t, NewAlerter(logger).Empty())

	a.SubmissionStored(testutil.Schema(t, testutil.LoadCatalog(t), "bytebloom"), record())
	require.Len(t, ok.sent, 1)
	assert.True(t, strings.HasPrefix(ok.sent[0], "New registration: ByteBloom Hackfest"))
	assert.Len(t, broken.sent, 1)
	assert.Equal(t, []string{"broken alert failed"}, logger.errors)
}

func TestTelegramSender(t *testing.T) {
	var (
		mu    sync.Mutex
		chats []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/botTOKEN/getMe":
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"devnest","username":"devnest_bot"}}`))
		case "/botTOKEN/sendMessage":
			_ = r.ParseForm()
			mu.Lock()
			chats = append(chats, r.PostForm.Get("chat_id"))
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"group"}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s, err := NewTelegramSenderWithEndpoint("TOKEN", srv.URL+"/bot%s/%s", []int64{42, -100})
	require.NoError(t, err)
	assert.Equal(t, "telegram", s.Name())
	require.NoError(t, s.Send("hello"))

	sort.Strings(chats)
	assert.Equal(t, []string{"-100", "42"}, chats)
}

func TestDiscordSender(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	orig := discordgo.EndpointWebhooks
	discordgo.EndpointWebhooks = srv.URL + "/webhooks/"
	defer func() { discordgo.EndpointWebhooks = orig }()

	s, err := NewDiscordSender("123", "secret")
	require.NoError(t, err)
	assert.Equal(t, "discord", s.Name())
	require.NoError(t, s.Send("hello"))
	assert.Equal(t, "/webhooks/123/secret", path)
}
