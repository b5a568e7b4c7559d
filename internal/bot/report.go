package bot

import (
	"log"

	"trustline/backend/internal/analysis"
	"trustline/backend/internal/models"
)

// startReport begins a fresh report draft and shows the active organizations.
func (c *Controller) startReport(t *turn) {
	orgs, err := c.catalog.ActiveOrganizations(t.ctx)
	if err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	if len(orgs) == 0 {
		c.reply(t, c.t(t.ev.Language, "no_orgs"), nil)
		return
	}
	c.save(t, models.StateReportOrg, &models.ReportDraft{})
	c.reply(t, c.t(t.ev.Language, "org_prompt"), orgKeyboard(orgs))
}

func (c *Controller) resendOrgs(t *turn) {
	orgs, err := c.catalog.ActiveOrganizations(t.ctx)
	if err != nil || len(orgs) == 0 {
		c.startReport(t)
		return
	}
	c.reply(t, c.t(t.ev.Language, "org_prompt"), orgKeyboard(orgs))
}

func (c *Controller) selectOrg(t *turn, orgID string) {
	org, err := c.catalog.Organization(t.ctx, orgID)
	if err != nil || !org.IsActive {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}

	draft := t.sess.ReportDraft()
	if draft == nil {
		draft = &models.ReportDraft{}
	}
	draft.OrgID = org.ID
	// категорія залежить від організації
	draft.CategoryID = ""
	c.save(t, models.StateReportCategory, draft)
	c.sendCategories(t, org.ID)
}

func (c *Controller) resendCategories(t *turn) {
	draft := t.sess.ReportDraft()
	if draft == nil || draft.OrgID == "" {
		c.startReport(t)
		return
	}
	c.sendCategories(t, draft.OrgID)
}

func (c *Controller) sendCategories(t *turn, orgID string) {
	cats, err := c.catalog.Categories(t.ctx, orgID)
	if err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	c.reply(t, c.t(t.ev.Language, "category_prompt"), categoryKeyboard(cats))
}

func (c *Controller) selectCategory(t *turn, categoryID string) {
	draft := t.sess.ReportDraft()
	if draft == nil || draft.OrgID == "" {
		c.startReport(t)
		return
	}

	cats, err := c.catalog.Categories(t.ctx, draft.OrgID)
	if err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	valid := false
	for _, cat := range cats {
		if cat.ID == categoryID {
			valid = true
			break
		}
	}
	if !valid {
		c.reply(t, c.t(t.ev.Language, "category_prompt"), categoryKeyboard(cats))
		return
	}

	draft.CategoryID = categoryID
	c.save(t, models.StateReportDescription, draft)
	c.reply(t, c.t(t.ev.Language, "describe_prompt"), nil)
}

func (c *Controller) captureDescription(t *turn) {
	if t.isEmpty() {
		c.reply(t, c.t(t.ev.Language, "describe_prompt"), nil)
		return
	}
	draft := t.sess.ReportDraft()
	if draft == nil || draft.OrgID == "" || draft.CategoryID == "" {
		c.startReport(t)
		return
	}

	draft.Text = t.text()
	draft.Attachments = t.ev.Attachments
	c.save(t, models.StateReportContact, draft)
	c.reply(t, c.t(t.ev.Language, "contact_ask"), c.contactKeyboard(t.ev.Language))
}

func (c *Controller) chooseContact(t *turn, optIn bool) {
	draft := t.sess.ReportDraft()
	if draft == nil || draft.Text == "" || draft.OrgID == "" || draft.CategoryID == "" {
		c.startReport(t)
		return
	}

	draft.ContactOptIn = optIn
	if !optIn {
		draft.ContactEmail, draft.ContactPhone, draft.ContactNote = nil, nil, nil
		c.save(t, models.StateReportConfirm, draft)
		c.sendReportSummary(t, draft)
		return
	}
	c.save(t, models.StateReportContactDetails, draft)
	c.reply(t, c.t(t.ev.Language, "contact_request"), nil)
}

func (c *Controller) captureContactDetails(t *turn) {
	text := t.text()
	if text == "" {
		c.reply(t, c.t(t.ev.Language, "contact_request"), nil)
		return
	}
	draft := t.sess.ReportDraft()
	if draft == nil {
		c.startReport(t)
		return
	}

	contact := analysis.ExtractContact(text)
	draft.ContactEmail = contact.Email
	draft.ContactPhone = contact.Phone
	draft.ContactNote = &contact.Note
	c.save(t, models.StateReportConfirm, draft)
	c.sendReportSummary(t, draft)
}

func (c *Controller) sendReportSummary(t *turn, draft *models.ReportDraft) {
	if draft == nil {
		c.startReport(t)
		return
	}
	orgName, categoryName := c.names(t, draft.OrgID, draft.CategoryID)
	c.reply(t, c.reportSummary(t.ev.Language, orgName, categoryName, draft), c.submitKeyboard(t.ev.Language))
}

// names resolves display names, falling back to the ids.
func (c *Controller) names(t *turn, orgID, categoryID string) (orgName, categoryName string) {
	orgName, categoryName = orgID, categoryID
	if org, err := c.catalog.Organization(t.ctx, orgID); err == nil {
		orgName = org.Name
	}
	if cats, err := c.catalog.Categories(t.ctx, orgID); err == nil {
		for _, cat := range cats {
			if cat.ID == categoryID {
				categoryName = cat.Name
				break
			}
		}
	}
	return orgName, categoryName
}

func (c *Controller) submitReport(t *turn) {
	if t.sess.State != models.StateReportConfirm && t.sess.State.Flow() == models.FlowReport {
		// застаріла кнопка: повторюємо підказку поточного кроку
		c.onMessage(t)
		return
	}
	draft := t.sess.ReportDraft()
	if t.sess.State != models.StateReportConfirm || !draft.Submittable() {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}

	cs := &models.Case{
		OrgID:              draft.OrgID,
		CategoryID:         draft.CategoryID,
		Text:               draft.Text,
		ReporterUserID:     t.ev.SenderID,
		ReporterChannelRef: t.ev.ChannelRef,
		ContactOptIn:       draft.ContactOptIn,
		ContactEmail:       draft.ContactEmail,
		ContactPhone:       draft.ContactPhone,
		ContactNote:        draft.ContactNote,
		Attachments:        draft.Attachments,
	}
	if err := c.cases.CreateCase(t.ctx, cs); err != nil {
		c.reply(t, c.t(t.ev.Language, "generic_error"), nil)
		return
	}
	log.Printf("INFO: case %s created in %s", cs.ShortID, cs.OrgID)

	c.clear(t)
	c.reply(t, c.loc.Sprintf(t.ev.Language, "submit_success", cs.ShortID), nil)
	if err := c.notifyNewCase(t.ctx, cs); err != nil {
		log.Printf("WARN: new case %s notification incomplete: %v", cs.ShortID, err)
	}
}

func (c *Controller) editReport(t *turn) {
	draft := t.sess.ReportDraft()
	if draft == nil {
		c.startReport(t)
		return
	}
	c.save(t, models.StateReportDescription, draft)
	c.reply(t, c.t(t.ev.Language, "describe_prompt"), nil)
}
