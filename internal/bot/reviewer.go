package bot

import (
	"errors"
	"log"
	"slices"

	"trustline/backend/internal/analysis"
	"trustline/backend/internal/config"
	"trustline/backend/internal/lifecycle"
	"trustline/backend/internal/models"
)

var listStatuses = map[string][]models.CaseStatus{
	PayloadRevInbox:  {models.StatusNew, models.StatusTriage},
	PayloadRevInProg: {models.StatusInProgress},
	PayloadRevClosed: {models.StatusResolvedConfirmed, models.StatusResolvedUnconfirmed, models.StatusRejected},
}

type caseActionSpec struct {
	action lifecycle.Action
	ackKey string
	// notice is bridged to the reporter after the change; empty means none.
	noticeKey string
}

var statusActions = map[string]caseActionSpec{
	PrefixRevTake:        {action: lifecycle.ActionTake, ackKey: "reviewer_take_ack"},
	PrefixRevCloseConf:   {action: lifecycle.ActionCloseConfirmed, ackKey: "reviewer_close_confirmed", noticeKey: "notice_closed_confirmed"},
	PrefixRevCloseUnconf: {action: lifecycle.ActionCloseUnconfirmed, ackKey: "reviewer_close_unconfirmed", noticeKey: "notice_closed_unconfirmed"},
	PrefixRevReject:      {action: lifecycle.ActionReject, ackKey: "reviewer_rejected", noticeKey: "notice_rejected"},
}

// enterReviewerMode shows the reviewer menu to existing reviewers, grants whitelisted
// users on first entry and asks everyone else for an access code.
func (c *Controller) enterReviewerMode(t *turn) {
	orgIDs, err := c.reviewers.ListReviewerOrgIDs(t.ctx, t.ev.SenderID)
	if err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	if len(orgIDs) == 0 {
		granted, err := c.reviewers.GrantByWhitelist(t.ctx, t.ev.SenderID, t.ev.ChannelRef)
		if err != nil {
			c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
			return
		}
		if len(granted) == 0 {
			c.save(t, models.StateReviewerAwaitCode, nil)
			c.reply(t, c.t(t.ev.Language, "reviewer_code_prompt"), nil)
			return
		}
		log.Printf("INFO: reviewer %s granted %v by whitelist", t.ev.SenderID, granted)
	}
	c.showReviewerMenu(t, "")
}

func (c *Controller) captureAccessCode(t *turn) {
	code := t.text()
	if code == "" {
		c.reply(t, c.t(t.ev.Language, "reviewer_code_prompt"), nil)
		return
	}
	orgID, ok, err := c.reviewers.GrantByAccessCode(t.ctx, t.ev.SenderID, code, t.ev.ChannelRef)
	if err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	if !ok {
		c.reply(t, c.t(t.ev.Language, "reviewer_denied"), nil)
		return
	}
	log.Printf("INFO: reviewer %s granted %s by access code", t.ev.SenderID, orgID)
	c.showReviewerMenu(t, orgID)
}

// showReviewerMenu resolves the active organization (preferred, then the one in session,
// then the first grant), refreshes the reviewer's channel for every grant and renders the menu.
func (c *Controller) showReviewerMenu(t *turn, preferred string) {
	orgIDs, err := c.reviewers.ListReviewerOrgIDs(t.ctx, t.ev.SenderID)
	if err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	if len(orgIDs) == 0 {
		c.clear(t)
		c.reply(t, c.t(t.ev.Language, "reviewer_denied"), nil)
		return
	}

	active := orgIDs[0]
	if d := t.sess.ReviewerDraft(); d != nil && slices.Contains(orgIDs, d.ActiveOrgID) {
		active = d.ActiveOrgID
	}
	if slices.Contains(orgIDs, preferred) {
		active = preferred
	}

	orgs := make([]models.Organization, 0, len(orgIDs))
	activeName := active
	for _, id := range orgIDs {
		if err := c.reviewers.TouchChannel(t.ctx, t.ev.SenderID, id, t.ev.ChannelRef); err != nil {
			log.Printf("WARN: refresh channel of reviewer %s in %s: %v", t.ev.SenderID, id, err)
		}
		org, err := c.catalog.Organization(t.ctx, id)
		if err != nil {
			log.Printf("WARN: reviewer %s holds a grant for unknown org %s", t.ev.SenderID, id)
			continue
		}
		orgs = append(orgs, *org)
		if id == active {
			activeName = org.Name
		}
	}

	c.save(t, models.StateIdle, &models.ReviewerDraft{ActiveOrgID: active})
	text := c.t(t.ev.Language, "reviewer_menu") + "\n" + c.loc.Sprintf(t.ev.Language, "active_org", activeName)
	c.reply(t, text, c.reviewerMenuKeyboard(t.ev.Language, orgs, active))
}

func (c *Controller) switchReviewerOrg(t *turn, orgID string) {
	ok, err := c.reviewers.IsMember(t.ctx, t.ev.SenderID, orgID)
	if err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	if !ok {
		c.clear(t)
		c.reply(t, c.t(t.ev.Language, "reviewer_denied"), nil)
		return
	}
	c.showReviewerMenu(t, orgID)
}

// activeOrg returns the reviewer's active organization, falling back to the first grant.
// Empty means the user holds no grant.
func (c *Controller) activeOrg(t *turn) string {
	if d := t.sess.ReviewerDraft(); d != nil && d.ActiveOrgID != "" {
		return d.ActiveOrgID
	}
	orgIDs, err := c.reviewers.ListReviewerOrgIDs(t.ctx, t.ev.SenderID)
	if err != nil || len(orgIDs) == 0 {
		return ""
	}
	return orgIDs[0]
}

// requireMember checks the grant for orgID. Non-members are denied and reset to idle.
func (c *Controller) requireMember(t *turn, orgID string) bool {
	ok, err := c.reviewers.IsMember(t.ctx, t.ev.SenderID, orgID)
	if err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return false
	}
	if !ok {
		c.clear(t)
		c.reply(t, c.t(t.ev.Language, "reviewer_denied"), nil)
		return false
	}
	return true
}

func (c *Controller) listCases(t *turn, payload string) {
	orgID := c.activeOrg(t)
	if orgID == "" {
		c.enterReviewerMode(t)
		return
	}
	if !c.requireMember(t, orgID) {
		return
	}
	c.save(t, models.StateIdle, &models.ReviewerDraft{ActiveOrgID: orgID})

	cases, err := c.cases.ListCasesByStatuses(t.ctx, orgID, listStatuses[payload], config.ReviewerListLimit)
	if err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	if len(cases) == 0 {
		c.reply(t, c.t(t.ev.Language, "no_cases"), nil)
		return
	}
	for i := range cases {
		c.sendCaseCard(t, &cases[i])
	}
}

func (c *Controller) sendCaseCard(t *turn, cs *models.Case) {
	orgName, categoryName := c.names(t, cs.OrgID, cs.CategoryID)
	c.reply(t, c.caseCard(t.ev.Language, cs, orgName, categoryName), c.caseActionsKeyboard(t.ev.Language, cs.ShortID))
}

func (c *Controller) promptFind(t *turn) {
	orgID := c.activeOrg(t)
	if orgID == "" {
		c.enterReviewerMode(t)
		return
	}
	c.save(t, models.StateReviewerFindCase, &models.ReviewerDraft{ActiveOrgID: orgID})
	c.reply(t, c.t(t.ev.Language, "find_prompt"), nil)
}

func (c *Controller) captureFindCase(t *turn) {
	orgID := c.activeOrg(t)
	c.save(t, models.StateIdle, &models.ReviewerDraft{ActiveOrgID: orgID})

	shortID := analysis.NormalizeShortID(t.text())
	if shortID == "" {
		c.reply(t, c.t(t.ev.Language, "find_prompt"), nil)
		return
	}
	cs, err := c.cases.FindCaseByShortID(t.ctx, shortID)
	if err != nil || cs.OrgID != orgID {
		c.reply(t, c.t(t.ev.Language, "case_not_found"), nil)
		return
	}
	if !c.requireMember(t, cs.OrgID) {
		return
	}
	c.sendCaseCard(t, cs)
}

func (c *Controller) handleCaseAction(t *turn, prefix, shortID string) {
	cs := c.findCase(t, shortID)
	if cs == nil {
		return
	}
	if !c.requireMember(t, cs.OrgID) {
		return
	}

	switch prefix {
	case PrefixRevReply:
		c.save(t, models.StateReviewerReply, &models.ReviewerDraft{ActiveOrgID: cs.OrgID, CaseID: cs.ID})
		c.reply(t, c.t(t.ev.Language, "reviewer_reply_prompt"), nil)
		return
	case PrefixRevAsk:
		c.save(t, models.StateReviewerAsk, &models.ReviewerDraft{ActiveOrgID: cs.OrgID, CaseID: cs.ID})
		c.reply(t, c.t(t.ev.Language, "reviewer_ask_prompt"), nil)
		return
	}

	spec, ok := statusActions[prefix]
	if !ok {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	err := c.lifecycle.Apply(t.ctx, cs, spec.action, t.ev.SenderID)
	if errors.Is(err, lifecycle.ErrIllegalTransition) {
		c.reply(t, c.t(t.ev.Language, "transition_not_allowed"), nil)
		return
	}
	if err != nil {
		log.Printf("ERROR: %s on case %s by %s: %v", spec.action, cs.ShortID, t.ev.SenderID, err)
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	log.Printf("INFO: case %s is now %s (by %s)", cs.ShortID, cs.Status, t.ev.SenderID)

	c.reply(t, c.t(t.ev.Language, spec.ackKey), nil)
	if spec.noticeKey != "" {
		notice := c.t(c.loc.DefaultLanguage(), spec.noticeKey)
		if err := c.bridgeToReporter(t.ctx, cs, notice, nil); err != nil {
			log.Printf("WARN: status notice for %s not delivered: %v", cs.ShortID, err)
		}
	}
}

// commitReviewerMessage stores a reviewer reply or clarification request and bridges it
// to the reporter.
func (c *Controller) commitReviewerMessage(t *turn, ask bool) {
	promptKey := "reviewer_reply_prompt"
	if ask {
		promptKey = "reviewer_ask_prompt"
	}
	// питання без тексту не має сенсу
	if t.isEmpty() || (ask && t.text() == "") {
		c.reply(t, c.t(t.ev.Language, promptKey), nil)
		return
	}

	draft := t.sess.ReviewerDraft()
	var cs *models.Case
	if draft != nil && draft.CaseID != "" {
		found, err := c.cases.FindCaseByID(t.ctx, draft.CaseID)
		if err == nil {
			cs = found
		}
	}
	if cs == nil {
		var org string
		if draft != nil {
			org = draft.ActiveOrgID
		}
		c.save(t, models.StateIdle, &models.ReviewerDraft{ActiveOrgID: org})
		c.reply(t, c.t(t.ev.Language, "case_not_found"), nil)
		return
	}
	if !c.requireMember(t, cs.OrgID) {
		return
	}

	msg := &models.CaseMessage{
		CaseID:      cs.ID,
		SenderType:  models.SenderReviewer,
		Text:        t.text(),
		Attachments: t.ev.Attachments,
	}
	if err := c.cases.AppendCaseMessage(t.ctx, msg); err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	if ask {
		if err := c.cases.SetPendingQuestion(t.ctx, cs.ID, msg.Text); err != nil {
			c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
			return
		}
	}

	if err := c.bridgeToReporter(t.ctx, cs, msg.Text, msg.Attachments); err != nil {
		log.Printf("WARN: reviewer message on %s not delivered: %v", cs.ShortID, err)
	}
	c.save(t, models.StateIdle, &models.ReviewerDraft{ActiveOrgID: cs.OrgID})
	c.reply(t, c.t(t.ev.Language, "reviewer_reply_ack"), nil)
}
