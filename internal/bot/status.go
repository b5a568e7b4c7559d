package bot

import (
	"errors"
	"log"

	"trustline/backend/internal/analysis"
	"trustline/backend/internal/models"
	"trustline/backend/internal/storage"
)

func (c *Controller) promptStatus(t *turn) {
	c.save(t, models.StateStatusWaitShortID, &models.StatusDraft{})
	c.reply(t, c.t(t.ev.Language, "status_prompt"), nil)
}

// findCase looks a case up by short id. It replies not-found or a generic error itself
// and returns nil in that case.
func (c *Controller) findCase(t *turn, shortID string) *models.Case {
	cs, err := c.cases.FindCaseByShortID(t.ctx, analysis.NormalizeShortID(shortID))
	if errors.Is(err, storage.ErrNotFound) {
		c.reply(t, c.t(t.ev.Language, "case_not_found"), nil)
		return nil
	}
	if err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return nil
	}
	return cs
}

func (c *Controller) lookupStatus(t *turn) {
	shortID := analysis.NormalizeShortID(t.text())
	if shortID == "" {
		c.reply(t, c.t(t.ev.Language, "status_prompt"), nil)
		return
	}
	cs := c.findCase(t, shortID)
	if cs == nil {
		return
	}

	status, question := c.statusMessage(t.ev.Language, cs)
	c.reply(t, status, nil)
	if question != "" {
		c.reply(t, question, c.statusReplyKeyboard(t.ev.Language, cs.ShortID))
	}
	c.save(t, models.StateStatusWaitShortID, &models.StatusDraft{LastShortID: cs.ShortID})
}

// prepareFollowup lets the reporter of a case answer it. Anyone else gets not-found.
func (c *Controller) prepareFollowup(t *turn, shortID string) {
	cs, err := c.cases.FindCaseByShortID(t.ctx, analysis.NormalizeShortID(shortID))
	if err != nil || cs.ReporterUserID != t.ev.SenderID {
		c.reply(t, c.t(t.ev.Language, "case_not_found"), nil)
		return
	}
	c.save(t, models.StateReporterFollowup, &models.FollowupDraft{CaseID: cs.ID, ShortID: cs.ShortID})
	c.reply(t, c.t(t.ev.Language, "describe_prompt"), nil)
}

func (c *Controller) captureFollowup(t *turn) {
	draft := t.sess.FollowupDraft()
	if draft == nil || draft.CaseID == "" {
		c.clear(t)
		c.reply(t, c.t(t.ev.Language, "case_not_found"), nil)
		return
	}
	if t.isEmpty() {
		c.reply(t, c.t(t.ev.Language, "describe_prompt"), nil)
		return
	}

	cs, err := c.cases.FindCaseByID(t.ctx, draft.CaseID)
	if err != nil {
		c.clear(t)
		c.reply(t, c.t(t.ev.Language, "case_not_found"), nil)
		return
	}

	msg := &models.CaseMessage{
		CaseID:      cs.ID,
		SenderType:  models.SenderReporter,
		Text:        t.text(),
		Attachments: t.ev.Attachments,
	}
	if err := c.cases.AppendCaseMessage(t.ctx, msg); err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	if err := c.cases.ClearPendingQuestion(t.ctx, cs.ID); err != nil {
		log.Printf("WARN: clear pending question on %s: %v", cs.ShortID, err)
	}

	c.save(t, models.StateStatusWaitShortID, &models.StatusDraft{LastShortID: cs.ShortID})
	c.reply(t, c.t(t.ev.Language, "reporter_reply_saved"), nil)
	if err := c.relayToReviewers(t.ctx, cs, msg.Text, msg.Attachments); err != nil {
		log.Printf("WARN: follow-up on %s not delivered to every reviewer: %v", cs.ShortID, err)
	}
}
