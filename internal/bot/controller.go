// Package bot is the conversation engine: it turns normalized chat events into case
// mutations, session transitions and outbound messages.
package bot

import (
	"context"
	"errors"
	"log"
	"runtime/debug"
	"slices"
	"strings"

	"trustline/backend/internal/config"
	"trustline/backend/internal/lifecycle"
	"trustline/backend/internal/localization"
	"trustline/backend/internal/models"
)

// CaseRepository is the case store the controller writes through.
type CaseRepository interface {
	CreateCase(ctx context.Context, c *models.Case) error
	FindCaseByShortID(ctx context.Context, shortID string) (*models.Case, error)
	FindCaseByID(ctx context.Context, id string) (*models.Case, error)
	ListCasesByStatuses(ctx context.Context, orgID string, statuses []models.CaseStatus, limit int) ([]models.Case, error)
	UpdateCaseStatus(ctx context.Context, caseID string, status models.CaseStatus, actorUserID string) error
	AssignCase(ctx context.Context, caseID, assigneeUserID string) error
	AppendCaseMessage(ctx context.Context, msg *models.CaseMessage) error
	SetPendingQuestion(ctx context.Context, caseID, question string) error
	ClearPendingQuestion(ctx context.Context, caseID string) error
}

// ReviewerDirectory answers who may review which organization.
type ReviewerDirectory interface {
	ListReviewerOrgIDs(ctx context.Context, userID string) ([]string, error)
	IsMember(ctx context.Context, userID, orgID string) (bool, error)
	GrantByWhitelist(ctx context.Context, userID, channelRef string) ([]string, error)
	GrantByAccessCode(ctx context.Context, userID, code, channelRef string) (string, bool, error)
	TouchChannel(ctx context.Context, userID, orgID, channelRef string) error
	ListReviewersForOrg(ctx context.Context, orgID string) ([]models.Reviewer, error)
}

// Catalog is the read side of organizations and categories.
type Catalog interface {
	ActiveOrganizations(ctx context.Context) ([]models.Organization, error)
	Organization(ctx context.Context, id string) (*models.Organization, error)
	Categories(ctx context.Context, orgID string) ([]models.Category, error)
}

// SessionStore keeps one dialogue session per user.
type SessionStore interface {
	Get(ctx context.Context, userID string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session) error
	Clear(ctx context.Context, userID string) error
}

// Messenger delivers outbound messages to a channel reference.
type Messenger interface {
	SendMessage(ctx context.Context, msg models.OutboundMessage) error
	AcknowledgeCallback(ctx context.Context, callbackID string) error
}

// Deps groups the controller's collaborators.
type Deps struct {
	Cases     CaseRepository
	Reviewers ReviewerDirectory
	Catalog   Catalog
	Sessions  SessionStore
	Messenger Messenger
	Localizer *localization.Localizer
	// FanOut caps concurrent sends when one event reaches many reviewers.
	FanOut int
}

// Controller is the finite-state dialogue engine.
type Controller struct {
	cases     CaseRepository
	reviewers ReviewerDirectory
	catalog   Catalog
	sessions  SessionStore
	messenger Messenger
	lifecycle *lifecycle.Service
	loc       *localization.Localizer
	fanOut    int
}

func NewController(d Deps) *Controller {
	fanOut := d.FanOut
	if fanOut <= 0 {
		fanOut = 4
	}
	return &Controller{
		cases:     d.Cases,
		reviewers: d.Reviewers,
		catalog:   d.Catalog,
		sessions:  d.Sessions,
		messenger: d.Messenger,
		lifecycle: lifecycle.NewService(d.Cases),
		loc:       d.Localizer,
		fanOut:    fanOut,
	}
}

// turn is one event being handled together with the sender's session.
type turn struct {
	ctx  context.Context
	ev   models.Event
	sess *models.Session
}

func (t *turn) text() string {
	return strings.TrimSpace(t.ev.Text)
}

func (t *turn) isEmpty() bool {
	return t.text() == "" && len(t.ev.Attachments) == 0
}

// Handle processes one inbound event. It never returns an error and never panics:
// failures are logged and, where it makes sense, answered with a canned reply.
func (c *Controller) Handle(ctx context.Context, ev models.Event) {
	var state models.State
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: panic handling %s event from %s in state %q: %v\n%s", ev.Kind, ev.SenderID, state, r, debug.Stack())
		}
	}()

	if ev.SenderID == "" || ev.ChannelRef == "" {
		log.Printf("WARN: dropping %s event without sender or channel", ev.Kind)
		return
	}

	if ev.Kind == models.EventCallback && ev.CallbackID != "" {
		if err := c.messenger.AcknowledgeCallback(ctx, ev.CallbackID); err != nil {
			log.Printf("WARN: failed to acknowledge callback for %s: %v", ev.SenderID, err)
		}
	}

	sess, err := c.loadSession(ctx, ev)
	if err != nil {
		log.Printf("ERROR: load session for %s: %v", ev.SenderID, err)
		c.reply(&turn{ctx: ctx, ev: ev}, c.t(ev.Language, "generic_error"), nil)
		return
	}
	state = sess.State
	t := &turn{ctx: ctx, ev: ev, sess: sess}

	switch ev.Kind {
	case models.EventMessage:
		c.onMessage(t)
	case models.EventCallback:
		c.onCallback(t)
	default:
		log.Printf("WARN: unknown event kind %q from %s", ev.Kind, ev.SenderID)
	}
}

// loadSession reads the sender's session. A record that no longer decodes is
// dropped, and the user continues from idle.
func (c *Controller) loadSession(ctx context.Context, ev models.Event) (*models.Session, error) {
	sess, err := c.sessions.Get(ctx, ev.SenderID)
	if !errors.Is(err, models.ErrCorruptSession) {
		return sess, err
	}
	log.Printf("WARN: resetting unreadable session of %s: %v", ev.SenderID, err)
	if err := c.sessions.Clear(ctx, ev.SenderID); err != nil {
		return nil, err
	}
	return &models.Session{UserID: ev.SenderID, State: models.StateIdle}, nil
}

func (c *Controller) onMessage(t *turn) {
	if slices.Contains(config.ResetCommands, t.text()) {
		c.clear(t)
		c.sendMainMenu(t)
		return
	}

	switch t.sess.State {
	case models.StateReportOrg:
		c.resendOrgs(t)
	case models.StateReportCategory:
		c.resendCategories(t)
	case models.StateReportDescription:
		c.captureDescription(t)
	case models.StateReportContact:
		c.reply(t, c.t(t.ev.Language, "contact_ask"), c.contactKeyboard(t.ev.Language))
	case models.StateReportContactDetails:
		c.captureContactDetails(t)
	case models.StateReportConfirm:
		c.sendReportSummary(t, t.sess.ReportDraft())
	case models.StateStatusWaitShortID:
		c.lookupStatus(t)
	case models.StateReporterFollowup:
		c.captureFollowup(t)
	case models.StateReviewerAwaitCode:
		c.captureAccessCode(t)
	case models.StateReviewerReply:
		c.commitReviewerMessage(t, false)
	case models.StateReviewerAsk:
		c.commitReviewerMessage(t, true)
	case models.StateReviewerFindCase:
		c.captureFindCase(t)
	default:
		c.sendMainMenu(t)
	}
}

func (c *Controller) onCallback(t *turn) {
	payload := t.ev.Payload

	switch payload {
	case PayloadMenuHelp:
		c.reply(t, c.t(t.ev.Language, "help_text"), nil)
		return
	case PayloadMenuReport:
		c.startReport(t)
		return
	case PayloadMenuStatus:
		c.promptStatus(t)
		return
	case PayloadMenuReviewer:
		c.enterReviewerMode(t)
		return
	case PayloadContactYes, PayloadContactNo:
		c.chooseContact(t, payload == PayloadContactYes)
		return
	case PayloadReportSubmit:
		c.submitReport(t)
		return
	case PayloadReportEdit:
		c.editReport(t)
		return
	case PayloadRevInbox, PayloadRevInProg, PayloadRevClosed:
		c.listCases(t, payload)
		return
	case PayloadRevFind:
		c.promptFind(t)
		return
	}

	if v, ok := strings.CutPrefix(payload, PrefixOrg); ok {
		c.selectOrg(t, v)
		return
	}
	if v, ok := strings.CutPrefix(payload, PrefixCategory); ok {
		c.selectCategory(t, v)
		return
	}
	if v, ok := strings.CutPrefix(payload, PrefixCaseReply); ok {
		c.prepareFollowup(t, v)
		return
	}
	if v, ok := strings.CutPrefix(payload, PrefixRevOrg); ok {
		c.switchReviewerOrg(t, v)
		return
	}
	if prefix, shortID, ok := splitCaseAction(payload); ok {
		c.handleCaseAction(t, prefix, shortID)
		return
	}
	log.Printf("INFO: ignoring unknown callback payload %q from %s", payload, t.ev.SenderID)
}

func (c *Controller) t(lang, key string) string {
	return c.loc.GetString(lang, key)
}

// reply answers the sender on the channel the event came from.
func (c *Controller) reply(t *turn, text string, kb models.Keyboard) {
	c.send(t.ctx, models.OutboundMessage{
		ChannelRef: t.ev.ChannelRef,
		Text:       text,
		Keyboard:   kb,
		Origin:     models.OriginSystem,
	})
}

// send delivers one message. Transport failures are logged and swallowed.
func (c *Controller) send(ctx context.Context, msg models.OutboundMessage) error {
	msg.Text = sanitizeText(msg.Text)
	if err := c.messenger.SendMessage(ctx, msg); err != nil {
		log.Printf("ERROR: send to %s failed: %v", msg.ChannelRef, err)
		return err
	}
	return nil
}

func (c *Controller) save(t *turn, state models.State, draft models.Draft) {
	t.sess.State = state
	t.sess.Draft = draft
	if err := c.sessions.Save(t.ctx, t.sess); err != nil {
		log.Printf("ERROR: save session for %s: %v", t.ev.SenderID, err)
	}
}

func (c *Controller) clear(t *turn) {
	t.sess.State = models.StateIdle
	t.sess.Draft = nil
	if err := c.sessions.Clear(t.ctx, t.ev.SenderID); err != nil {
		log.Printf("ERROR: clear session for %s: %v", t.ev.SenderID, err)
	}
}

func (c *Controller) sendMainMenu(t *turn) {
	c.reply(t, c.t(t.ev.Language, "main_menu"), c.mainMenuKeyboard(t.ev.Language))
}
