package bot_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"trustline/backend/internal/bot"
	"trustline/backend/internal/config"
	"trustline/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reporter = "1001"

func TestReportFlow_SubmitCreatesOneCase(t *testing.T) {
	h := newHarness(t)

	h.tap(reporter, bot.PayloadMenuReport)
	assert.Equal(t, models.StateReportOrg, h.session(reporter).State)
	assert.Equal(t, []string{"ORG:ORG1", "ORG:ORG2"}, payloads(h.msgr.last(channel(reporter)).Keyboard), "inactive orgs are hidden")

	h.tap(reporter, "ORG:ORG1")
	assert.Equal(t, models.StateReportCategory, h.session(reporter).State)
	assert.Len(t, payloads(h.msgr.last(channel(reporter)).Keyboard), len(config.DefaultCategories))

	h.tap(reporter, "CAT:CAT_SAFETY")
	assert.Equal(t, models.StateReportCategory, h.session(reporter).State, "category of another org is rejected")
	assert.Equal(t, h.text("category_prompt"), h.lastText(reporter))

	h.tap(reporter, "CAT:CAT_FRAUD")
	assert.Equal(t, models.StateReportDescription, h.session(reporter).State)

	h.say(reporter, "   ")
	assert.Equal(t, models.StateReportDescription, h.session(reporter).State)
	assert.Equal(t, h.text("describe_prompt"), h.lastText(reporter))

	h.say(reporter, "saw cash handed over")
	assert.Equal(t, models.StateReportContact, h.session(reporter).State)

	h.tap(reporter, bot.PayloadContactNo)
	assert.Equal(t, models.StateReportConfirm, h.session(reporter).State)
	summary := h.lastText(reporter)
	assert.Contains(t, summary, "Acme")
	assert.Contains(t, summary, "Мошенничество")
	assert.Contains(t, summary, "saw cash handed over")

	h.tap(reporter, bot.PayloadReportSubmit)
	sess := h.session(reporter)
	assert.Equal(t, models.StateIdle, sess.State)
	assert.Nil(t, sess.Draft)

	cases, err := h.store.ListCasesByStatuses(h.ctx, "ORG1", models.AllStatuses, 10)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	c := cases[0]
	assert.Equal(t, models.StatusNew, c.Status)
	assert.Equal(t, "CAT_FRAUD", c.CategoryID)
	assert.False(t, c.ContactOptIn)
	assert.Nil(t, c.ContactEmail)
	assert.Equal(t, channel(reporter), c.ReporterChannelRef)
	assert.Contains(t, h.lastText(reporter), c.ShortID)

	trail, err := h.store.AuditTrail(h.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, models.AuditCaseCreated, trail[0].Action)

	// double tap on submit does not create a second case
	h.tap(reporter, bot.PayloadReportSubmit)
	assert.Equal(t, h.text("generic_error"), h.lastText(reporter))
	cases, _ = h.store.ListCasesByStatuses(h.ctx, "ORG1", models.AllStatuses, 10)
	assert.Len(t, cases, 1)
}

func TestReportFlow_ContactDetails(t *testing.T) {
	h := newHarness(t)

	h.tap(reporter, bot.PayloadMenuReport)
	h.tap(reporter, "ORG:ORG2")
	h.tap(reporter, "CAT:CAT_SAFETY")
	h.say(reporter, "scaffolding without rails", models.Attachment{ID: "p1", Type: "photo", ContentRef: "file-p1"})
	h.tap(reporter, bot.PayloadContactYes)
	assert.Equal(t, models.StateReportContactDetails, h.session(reporter).State)

	h.say(reporter, "")
	assert.Equal(t, h.text("contact_request"), h.lastText(reporter))

	h.say(reporter, "mail me at jane@example.org or +7 999 123-45-67")
	assert.Equal(t, models.StateReportConfirm, h.session(reporter).State)
	assert.Contains(t, h.lastText(reporter), "Охрана труда")

	h.tap(reporter, bot.PayloadReportSubmit)
	cases, err := h.store.ListCasesByStatuses(h.ctx, "ORG2", []models.CaseStatus{models.StatusNew}, 10)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	c := cases[0]
	assert.True(t, c.ContactOptIn)
	require.NotNil(t, c.ContactEmail)
	assert.Equal(t, "jane@example.org", *c.ContactEmail)
	require.NotNil(t, c.ContactPhone)
	assert.Equal(t, "79991234567", *c.ContactPhone)
	assert.Len(t, c.Attachments, 1)
}

func TestReportFlow_EditKeepsDraft(t *testing.T) {
	h := newHarness(t)

	h.tap(reporter, bot.PayloadMenuReport)
	h.tap(reporter, "ORG:ORG1")
	h.tap(reporter, "CAT:CAT_OTHER")
	h.say(reporter, "first version")
	h.tap(reporter, bot.PayloadContactNo)
	h.tap(reporter, bot.PayloadReportEdit)

	sess := h.session(reporter)
	assert.Equal(t, models.StateReportDescription, sess.State)
	require.NotNil(t, sess.ReportDraft())
	assert.Equal(t, "ORG1", sess.ReportDraft().OrgID)

	h.say(reporter, "second version")
	h.tap(reporter, bot.PayloadContactNo)
	assert.Contains(t, h.lastText(reporter), "second version")
}

func TestReportFlow_OutOfOrderCallbacksRestart(t *testing.T) {
	h := newHarness(t)

	h.tap(reporter, "CAT:CAT_FRAUD")
	assert.Equal(t, models.StateReportOrg, h.session(reporter).State)

	h.tap(reporter, "ORG:ORG3")
	assert.Equal(t, h.text("generic_error"), h.lastText(reporter), "inactive org")
	assert.Equal(t, models.StateReportOrg, h.session(reporter).State)

	h.tap(reporter, bot.PayloadContactYes)
	assert.Equal(t, models.StateReportOrg, h.session(reporter).State)
}

func TestResetCommandClearsSession(t *testing.T) {
	h := newHarness(t)

	h.tap(reporter, bot.PayloadMenuReport)
	h.tap(reporter, "ORG:ORG1")
	for _, cmd := range config.ResetCommands {
		h.say(reporter, cmd)
		sess := h.session(reporter)
		assert.Equal(t, models.StateIdle, sess.State)
		assert.Nil(t, sess.Draft)
		assert.Equal(t, h.text("main_menu"), h.lastText(reporter))
	}
}

func TestUnreadableSessionIsReset(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.redis.Set("session:"+reporter, `{"state":"report.org","flow":"legacy","draft":{"org":"ORG1"}}`))
	h.say(reporter, "/start")
	assert.Equal(t, h.text("main_menu"), h.lastText(reporter))
	assert.False(t, h.redis.Exists("session:"+reporter))

	require.NoError(t, h.redis.Set("session:"+reporter, "{not json"))
	h.tap(reporter, bot.PayloadMenuReport)
	assert.Equal(t, models.StateReportOrg, h.session(reporter).State)
	assert.NotEqual(t, h.text("generic_error"), h.lastText(reporter))
}

func TestStaleSubmitBeforeConfirm(t *testing.T) {
	h := newHarness(t)

	h.tap(reporter, bot.PayloadMenuReport)
	h.tap(reporter, "ORG:ORG1")
	h.tap(reporter, "CAT:CAT_FRAUD")
	h.say(reporter, "saw cash handed over")
	h.tap(reporter, bot.PayloadContactYes)

	h.tap(reporter, bot.PayloadReportSubmit)
	assert.Equal(t, models.StateReportContactDetails, h.session(reporter).State)
	assert.Equal(t, h.text("contact_request"), h.lastText(reporter))
	cases, err := h.store.ListCasesByStatuses(h.ctx, "ORG1", models.AllStatuses, 10)
	require.NoError(t, err)
	assert.Empty(t, cases)

	h.say(reporter, "jane@example.org")
	h.tap(reporter, bot.PayloadReportSubmit)
	cases, err = h.store.ListCasesByStatuses(h.ctx, "ORG1", models.AllStatuses, 10)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	require.NotNil(t, cases[0].ContactEmail)
	assert.Equal(t, "jane@example.org", *cases[0].ContactEmail)
}

func TestCallbacksAreAlwaysAcknowledged(t *testing.T) {
	h := newHarness(t)

	h.tap(reporter, bot.PayloadMenuHelp)
	h.tap(reporter, "SOMETHING_ELSE")
	h.tap(reporter, bot.PrefixRevTake+"NOPE2345")

	assert.Equal(t, []string{"cb-1", "cb-2", "cb-3"}, h.msgr.acks)
	assert.Equal(t, h.text("case_not_found"), h.lastText(reporter))
}

func TestStatusLookup(t *testing.T) {
	h := newHarness(t)
	c := h.submit(reporter, "ORG1", "CAT_FRAUD", "saw cash handed over")

	h.tap("2002", bot.PayloadMenuStatus)
	assert.Equal(t, models.StateStatusWaitShortID, h.session("2002").State)

	h.say("2002", "ZZZZ9999")
	assert.Equal(t, h.text("case_not_found"), h.lastText("2002"))

	h.say("2002", strings.ToLower(c.ShortID))
	reply := h.lastText("2002")
	assert.Contains(t, reply, c.ShortID)
	assert.Contains(t, reply, "Новое")
	assert.Empty(t, h.msgr.last(channel("2002")).Keyboard, "no pending question, no reply button")

	sess := h.session("2002")
	assert.Equal(t, models.StateStatusWaitShortID, sess.State)
	require.IsType(t, &models.StatusDraft{}, sess.Draft)
	assert.Equal(t, c.ShortID, sess.Draft.(*models.StatusDraft).LastShortID)
}

func TestScenario_TakeThenCloseConfirmed(t *testing.T) {
	h := newHarness(t)
	c := h.submit(reporter, "ORG1", "CAT_FRAUD", "saw cash handed over")
	assert.False(t, c.ContactOptIn)
	assert.Nil(t, c.ContactEmail)

	const rev = "5001"
	h.tap(rev, bot.PayloadMenuReviewer)
	assert.Equal(t, h.text("reviewer_menu")+"\n"+h.loc.Sprintf("ru", "active_org", "Acme"), h.lastText(rev))

	h.tap(rev, bot.PayloadRevInbox)
	card := h.msgr.last(channel(rev))
	assert.Contains(t, card.Text, "["+c.ShortID+"]")
	assert.Contains(t, payloads(card.Keyboard), bot.PrefixRevTake+c.ShortID)

	h.tap(rev, bot.PrefixRevCloseConf+c.ShortID)
	assert.Equal(t, h.text("transition_not_allowed"), h.lastText(rev))
	assert.Equal(t, models.StatusNew, h.reload(c).Status, "new never jumps to resolved")

	h.tap(rev, bot.PrefixRevTake+c.ShortID)
	got := h.reload(c)
	assert.Equal(t, models.StatusInProgress, got.Status)
	require.NotNil(t, got.AssigneeUserID)
	assert.Equal(t, rev, *got.AssigneeUserID)

	h.tap(rev, bot.PrefixRevTake+c.ShortID)
	assert.Equal(t, h.text("transition_not_allowed"), h.lastText(rev))

	before := len(h.msgr.to(channel(reporter)))
	h.tap(rev, bot.PrefixRevCloseConf+c.ShortID)
	assert.Equal(t, models.StatusResolvedConfirmed, h.reload(c).Status)

	toReporter := h.msgr.to(channel(reporter))[before:]
	require.Len(t, toReporter, 1)
	assert.Equal(t, models.OriginBridged, toReporter[0].Origin)
	assert.Equal(t, h.text("notice_closed_confirmed"), toReporter[0].Text)

	trail, err := h.store.AuditTrail(h.ctx, c.ID)
	require.NoError(t, err)
	var actions []string
	for _, e := range trail {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{models.AuditCaseCreated, models.AuditCaseAssign, models.AuditCaseStatus, models.AuditCaseStatus}, actions)
	assert.Equal(t, "in_progress", trail[2].Meta["status"])
	assert.Equal(t, "resolved_confirmed", trail[3].Meta["status"])

	h.tap(rev, bot.PrefixRevReject+c.ShortID)
	assert.Equal(t, h.text("transition_not_allowed"), h.lastText(rev), "terminal cases stay closed")
}

func TestScenario_AskAndFollowup(t *testing.T) {
	h := newHarness(t)
	const rev = "5001"
	h.tap(rev, bot.PayloadMenuReviewer)

	c := h.submit(reporter, "ORG1", "CAT_FRAUD", "saw cash handed over")
	assert.Equal(t, "Новое обращение "+c.ShortID+" в Acme.", h.lastText(rev), "reviewers hear about new cases")

	h.tap(rev, bot.PrefixRevAsk+c.ShortID)
	assert.Equal(t, models.StateReviewerAsk, h.session(rev).State)

	h.say(rev, "please provide the date")
	got := h.reload(c)
	require.NotNil(t, got.PendingQuestion)
	assert.Equal(t, "please provide the date", *got.PendingQuestion)

	bridged := h.msgr.last(channel(reporter))
	assert.Equal(t, models.OriginBridged, bridged.Origin)
	assert.Equal(t, "please provide the date", bridged.Text)

	revSess := h.session(rev)
	assert.Equal(t, models.StateIdle, revSess.State)
	require.NotNil(t, revSess.ReviewerDraft())
	assert.Equal(t, "ORG1", revSess.ReviewerDraft().ActiveOrgID)

	// reporter checks status and answers
	h.tap(reporter, bot.PayloadMenuStatus)
	h.say(reporter, c.ShortID)
	question := h.msgr.last(channel(reporter))
	assert.Contains(t, question.Text, "please provide the date")
	assert.Equal(t, []string{bot.PrefixCaseReply + c.ShortID}, payloads(question.Keyboard))

	// somebody else cannot answer for the reporter
	h.tap("6666", bot.PrefixCaseReply+c.ShortID)
	assert.Equal(t, h.text("case_not_found"), h.lastText("6666"))
	assert.Equal(t, models.StateIdle, h.session("6666").State)

	h.tap(reporter, bot.PrefixCaseReply+c.ShortID)
	assert.Equal(t, models.StateReporterFollowup, h.session(reporter).State)

	h.say(reporter, "it was March 3rd")
	assert.Nil(t, h.reload(c).PendingQuestion)
	assert.Equal(t, h.text("reporter_reply_saved"), h.lastText(reporter))
	assert.Equal(t, models.StateStatusWaitShortID, h.session(reporter).State)

	msgs, err := h.store.CaseMessages(h.ctx, c.ID)
	require.NoError(t, err)
	last := msgs[len(msgs)-1]
	assert.Equal(t, models.SenderReporter, last.SenderType)
	assert.Equal(t, "it was March 3rd", last.Text)
	assert.Equal(t, models.SenderReviewer, msgs[len(msgs)-2].SenderType)

	relayed := h.msgr.last(channel(rev))
	assert.Equal(t, "Заявитель #"+c.ShortID+":\nit was March 3rd", relayed.Text)
	assert.Equal(t, models.OriginBridged, relayed.Origin)

	trail, _ := h.store.AuditTrail(h.ctx, c.ID)
	assert.Len(t, trail, 1, "messages are not audited")
}

func TestReviewerReplyToMissingCase(t *testing.T) {
	h := newHarness(t)
	const rev = "5001"
	h.tap(rev, bot.PayloadMenuReviewer)
	require.NoError(t, h.sessions.Save(h.ctx, &models.Session{
		UserID: rev, State: models.StateReviewerReply,
		Draft: &models.ReviewerDraft{ActiveOrgID: "ORG1", CaseID: "gone"},
	}))

	h.say(rev, "hello")
	assert.Equal(t, h.text("case_not_found"), h.lastText(rev))
	sess := h.session(rev)
	assert.Equal(t, models.StateIdle, sess.State)
	assert.Equal(t, "ORG1", sess.ReviewerDraft().ActiveOrgID)
}

func TestAccessCodeUsedTwice(t *testing.T) {
	h := newHarness(t)
	const user = "2001"

	h.tap(user, bot.PayloadMenuReviewer)
	assert.Equal(t, models.StateReviewerAwaitCode, h.session(user).State)

	h.say(user, "wrong-code")
	assert.Equal(t, h.text("reviewer_denied"), h.lastText(user))
	assert.Equal(t, models.StateReviewerAwaitCode, h.session(user).State)

	h.say(user, "globex-2024")
	sess := h.session(user)
	assert.Equal(t, models.StateIdle, sess.State)
	assert.Equal(t, "ORG2", sess.ReviewerDraft().ActiveOrgID)

	first, err := h.store.ListReviewersForOrg(h.ctx, "ORG2")
	require.NoError(t, err)
	require.Len(t, first, 1)
	firstVerified := first[0].VerifiedAt

	// the same code again, from another chat
	h.clock = h.clock.Add(time.Hour)
	require.NoError(t, h.sessions.Save(h.ctx, &models.Session{UserID: user, State: models.StateReviewerAwaitCode}))
	h.ctrl.Handle(h.ctx, models.Event{Kind: models.EventMessage, SenderID: user, ChannelRef: "tg:777", Text: "globex-2024"})

	second, err := h.store.ListReviewersForOrg(h.ctx, "ORG2")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].VerifiedAt.After(firstVerified))
	require.NotNil(t, second[0].ChannelRef)
	assert.Equal(t, "tg:777", *second[0].ChannelRef)

	orgIDs, _ := h.store.ListReviewerOrgIDs(h.ctx, user)
	assert.Equal(t, []string{"ORG2"}, orgIDs, "a code grants exactly its organization")
}

func TestReviewerOrgSwitching(t *testing.T) {
	h := newHarness(t)
	const rev = "5002"

	h.tap(rev, bot.PayloadMenuReviewer)
	orgIDs, err := h.store.ListReviewerOrgIDs(h.ctx, rev)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORG1", "ORG2"}, orgIDs)

	menu := h.msgr.last(channel(rev))
	require.Len(t, menu.Keyboard, 3)
	assert.Equal(t, "▶ Acme", menu.Keyboard[2][0].Text)
	assert.Equal(t, "Globex", menu.Keyboard[2][1].Text)

	h.tap(rev, bot.PrefixRevOrg+"ORG2")
	assert.Equal(t, "ORG2", h.session(rev).ReviewerDraft().ActiveOrgID)
	assert.Equal(t, "▶ Globex", h.msgr.last(channel(rev)).Keyboard[2][1].Text)

	h.tap(rev, bot.PrefixRevOrg+"ORG3")
	assert.Equal(t, h.text("reviewer_denied"), h.lastText(rev))
	sess := h.session(rev)
	assert.Equal(t, models.StateIdle, sess.State)
	assert.Nil(t, sess.Draft)
}

func TestReviewerCannotTouchForeignCase(t *testing.T) {
	h := newHarness(t)
	c := h.submit(reporter, "ORG2", "CAT_SAFETY", "no helmets")

	const rev = "5001"
	h.tap(rev, bot.PayloadMenuReviewer)

	h.tap(rev, bot.PrefixRevTake+c.ShortID)
	assert.Equal(t, h.text("reviewer_denied"), h.lastText(rev))
	assert.Equal(t, models.StatusNew, h.reload(c).Status)
	assert.Nil(t, h.session(rev).Draft)

	h.tap(rev, bot.PayloadMenuReviewer)
	h.tap(rev, bot.PayloadRevFind)
	assert.Equal(t, models.StateReviewerFindCase, h.session(rev).State)
	h.say(rev, c.ShortID)
	assert.Equal(t, h.text("case_not_found"), h.lastText(rev))
	sess := h.session(rev)
	assert.Equal(t, models.StateIdle, sess.State)
	assert.Equal(t, "ORG1", sess.ReviewerDraft().ActiveOrgID)
}

func TestReviewerFindAndLists(t *testing.T) {
	h := newHarness(t)
	const rev = "5001"
	h.tap(rev, bot.PayloadMenuReviewer)

	var created []*models.Case
	for i := 0; i < 7; i++ {
		created = append(created, h.submit(reporter, "ORG1", "CAT_FRAUD", "case number "+string(rune('A'+i))))
	}

	h.msgr.reset()
	h.tap(rev, bot.PayloadRevInbox)
	assert.Len(t, h.msgr.to(channel(rev)), config.ReviewerListLimit)

	h.msgr.reset()
	h.tap(rev, bot.PayloadRevInProg)
	assert.Equal(t, []string{h.text("no_cases")}, texts(h.msgr.to(channel(rev))))

	h.tap(rev, bot.PayloadRevFind)
	h.say(rev, created[3].ShortID)
	card := h.msgr.last(channel(rev))
	assert.Contains(t, card.Text, created[3].ShortID)
	assert.Contains(t, card.Text, "Мошенничество")
	assert.Len(t, card.Keyboard, 3)
}

func TestNonReviewerListFallsBackToEntry(t *testing.T) {
	h := newHarness(t)
	h.tap("3003", bot.PayloadRevInbox)
	assert.Equal(t, models.StateReviewerAwaitCode, h.session("3003").State)
}

func TestTransportFailureDoesNotRollBack(t *testing.T) {
	h := newHarness(t)
	c := h.submit(reporter, "ORG1", "CAT_FRAUD", "saw cash handed over")
	const rev = "5001"
	h.tap(rev, bot.PayloadMenuReviewer)
	h.tap(rev, bot.PrefixRevTake+c.ShortID)

	h.msgr.failFor[channel(reporter)] = errors.New("chat blocked the bot")
	h.tap(rev, bot.PrefixRevReject+c.ShortID)

	assert.Equal(t, models.StatusRejected, h.reload(c).Status)
	assert.Equal(t, h.text("reviewer_rejected"), h.lastText(rev))
}

func TestFailedReviewerDoesNotBlockOthers(t *testing.T) {
	h := newHarness(t)
	h.tap("5001", bot.PayloadMenuReviewer)
	h.tap("5002", bot.PayloadMenuReviewer)
	h.msgr.failFor[channel("5001")] = errors.New("chat blocked the bot")
	before := len(h.msgr.to(channel("5001")))

	c := h.submit(reporter, "ORG1", "CAT_FRAUD", "saw cash handed over")
	assert.Equal(t, "Новое обращение "+c.ShortID+" в Acme.", h.lastText("5002"))

	h.tap("5002", bot.PrefixRevAsk+c.ShortID)
	h.say("5002", "which floor?")
	h.tap(reporter, bot.PrefixCaseReply+c.ShortID)
	h.say(reporter, "third floor")

	relayed := h.msgr.last(channel("5002"))
	assert.Equal(t, "Заявитель #"+c.ShortID+":\nthird floor", relayed.Text)
	assert.Equal(t, models.OriginBridged, relayed.Origin)
	assert.Len(t, h.msgr.to(channel("5001")), before)
}

type panickyMessenger struct{}

func (panickyMessenger) SendMessage(context.Context, models.OutboundMessage) error {
	panic("boom")
}

func (panickyMessenger) AcknowledgeCallback(context.Context, string) error { return nil }

func TestHandleRecoversFromPanics(t *testing.T) {
	h := newHarness(t)
	ctrl := bot.NewController(bot.Deps{
		Cases: h.store, Reviewers: h.store, Catalog: h.store,
		Sessions: h.sessions, Messenger: panickyMessenger{}, Localizer: h.loc,
	})

	assert.NotPanics(t, func() {
		ctrl.Handle(h.ctx, models.Event{Kind: models.EventMessage, SenderID: "u", ChannelRef: "tg:u", Text: "hi"})
	})
}

func TestEventsWithoutSenderAreDropped(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Handle(h.ctx, models.Event{Kind: models.EventMessage, Text: "hi"})
	assert.Empty(t, h.msgr.sent)
}

func TestLongOutboundTextIsCapped(t *testing.T) {
	h := newHarness(t)
	long := strings.Repeat("я", config.MaxMessageLength+100)
	c := h.submit(reporter, "ORG1", "CAT_FRAUD", "short")
	const rev = "5001"
	h.tap(rev, bot.PayloadMenuReviewer)
	h.tap(rev, bot.PrefixRevReply+c.ShortID)
	h.say(rev, long)

	bridged := h.msgr.last(channel(reporter))
	assert.Equal(t, config.MaxMessageLength, len([]rune(bridged.Text)))
	assert.True(t, strings.HasSuffix(bridged.Text, "…"))
}

func texts(msgs []models.OutboundMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}
