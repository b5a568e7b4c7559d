package bot_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"trustline/backend/internal/auth"
	"trustline/backend/internal/bot"
	"trustline/backend/internal/config"
	"trustline/backend/internal/localization"
	"trustline/backend/internal/models"
	"trustline/backend/internal/session"
	"trustline/backend/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingMessenger keeps every outbound message per channel.
type recordingMessenger struct {
	mu      sync.Mutex
	sent    []models.OutboundMessage
	acks    []string
	failFor map[string]error
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{failFor: map[string]error{}}
}

func (m *recordingMessenger) SendMessage(_ context.Context, msg models.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[msg.ChannelRef]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMessenger) AcknowledgeCallback(_ context.Context, callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, callbackID)
	return nil
}

func (m *recordingMessenger) to(ref string) []models.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.OutboundMessage
	for _, msg := range m.sent {
		if msg.ChannelRef == ref {
			out = append(out, msg)
		}
	}
	return out
}

func (m *recordingMessenger) last(ref string) models.OutboundMessage {
	msgs := m.to(ref)
	if len(msgs) == 0 {
		return models.OutboundMessage{}
	}
	return msgs[len(msgs)-1]
}

func (m *recordingMessenger) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.acks = nil
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	store    *storage.Service
	sessions *session.RedisStore
	redis    *miniredis.Miniredis
	msgr     *recordingMessenger
	loc      *localization.Localizer
	ctrl     *bot.Controller
	clock    time.Time
	callback int
}

func testCatalog() config.Catalog {
	inactive := false
	return config.Catalog{
		Orgs: []config.OrgSpec{
			{ID: "ORG1", Name: "Acme"},
			{ID: "ORG2", Name: "Globex", Categories: []config.CategorySpec{{ID: "CAT_SAFETY", Name: "Охрана труда"}}},
			{ID: "ORG3", Name: "Initech", IsActive: &inactive},
		},
		Whitelist: map[string]config.UserIDs{
			"ORG1": {"5001", "5002"},
			"ORG2": {"5002"},
		},
		AccessCodes: []config.AccessCodeSpec{{OrgID: "ORG2", Code: "globex-2024"}},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, ctx: context.Background(), clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "bot.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	h.store = storage.NewStorageService(db, nil,
		storage.WithHasher(auth.NewHasher(auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLen: 16, SaltLen: 8})),
		storage.WithClock(func() time.Time { return h.clock }),
	)
	require.NoError(t, h.store.Migrate())
	require.NoError(t, h.store.SyncCatalog(h.ctx, testCatalog()))

	h.redis = miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: h.redis.Addr()})
	t.Cleanup(func() { rdb.Close() })
	h.sessions = session.NewRedisStore(rdb, time.Hour)

	h.loc, err = localization.NewLocalizer("ru")
	require.NoError(t, err)
	h.msgr = newRecordingMessenger()
	h.ctrl = bot.NewController(bot.Deps{
		Cases:     h.store,
		Reviewers: h.store,
		Catalog:   h.store,
		Sessions:  h.sessions,
		Messenger: h.msgr,
		Localizer: h.loc,
		FanOut:    4,
	})
	return h
}

func channel(user string) string { return "tg:" + user }

func (h *harness) say(user, text string, attachments ...models.Attachment) {
	h.ctrl.Handle(h.ctx, models.Event{
		Kind:        models.EventMessage,
		SenderID:    user,
		ChannelRef:  channel(user),
		Text:        text,
		Attachments: attachments,
	})
}

func (h *harness) tap(user, payload string) {
	h.callback++
	h.ctrl.Handle(h.ctx, models.Event{
		Kind:       models.EventCallback,
		SenderID:   user,
		ChannelRef: channel(user),
		CallbackID: fmt.Sprintf("cb-%d", h.callback),
		Payload:    payload,
	})
}

func (h *harness) session(user string) *models.Session {
	sess, err := h.sessions.Get(h.ctx, user)
	require.NoError(h.t, err)
	return sess
}

func (h *harness) lastText(user string) string {
	return h.msgr.last(channel(user)).Text
}

func (h *harness) text(key string) string {
	return h.loc.GetString("ru", key)
}

// submit walks a reporter through the whole report flow without contact details.
func (h *harness) submit(user, orgID, categoryID, text string) *models.Case {
	h.t.Helper()
	h.tap(user, bot.PayloadMenuReport)
	h.tap(user, bot.PrefixOrg+orgID)
	h.tap(user, bot.PrefixCategory+categoryID)
	h.say(user, text)
	h.tap(user, bot.PayloadContactNo)
	h.tap(user, bot.PayloadReportSubmit)

	cases, err := h.store.ListCasesByStatuses(h.ctx, orgID, []models.CaseStatus{models.StatusNew}, 100)
	require.NoError(h.t, err)
	for i := range cases {
		if cases[i].ReporterUserID == user && cases[i].Text == text {
			return &cases[i]
		}
	}
	h.t.Fatalf("case %q of %s was not created", text, user)
	return nil
}

func (h *harness) reload(c *models.Case) *models.Case {
	got, err := h.store.FindCaseByID(h.ctx, c.ID)
	require.NoError(h.t, err)
	return got
}

func payloads(kb models.Keyboard) []string {
	var out []string
	for _, row := range kb {
		for _, b := range row {
			out = append(out, b.Payload)
		}
	}
	return out
}
