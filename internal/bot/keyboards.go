package bot

import (
	"trustline/backend/internal/models"
)

func (c *Controller) mainMenuKeyboard(lang string) models.Keyboard {
	return models.Keyboard{
		{
			{Text: c.t(lang, "button_report"), Payload: PayloadMenuReport},
			{Text: c.t(lang, "button_status"), Payload: PayloadMenuStatus},
		},
		{
			{Text: c.t(lang, "button_reviewer"), Payload: PayloadMenuReviewer},
			{Text: c.t(lang, "button_help"), Payload: PayloadMenuHelp},
		},
	}
}

func orgKeyboard(orgs []models.Organization) models.Keyboard {
	buttons := make([]models.Button, 0, len(orgs))
	for _, org := range orgs {
		buttons = append(buttons, models.Button{Text: org.Name, Payload: PrefixOrg + org.ID})
	}
	return chunkButtons(buttons, 1)
}

func categoryKeyboard(cats []models.Category) models.Keyboard {
	buttons := make([]models.Button, 0, len(cats))
	for _, cat := range cats {
		buttons = append(buttons, models.Button{Text: cat.Name, Payload: PrefixCategory + cat.ID})
	}
	return chunkButtons(buttons, 2)
}

func (c *Controller) contactKeyboard(lang string) models.Keyboard {
	return models.Keyboard{{
		{Text: c.t(lang, "contact_yes"), Payload: PayloadContactYes},
		{Text: c.t(lang, "contact_no"), Payload: PayloadContactNo},
	}}
}

func (c *Controller) submitKeyboard(lang string) models.Keyboard {
	return models.Keyboard{{
		{Text: c.t(lang, "submit_button"), Payload: PayloadReportSubmit},
		{Text: c.t(lang, "edit_button"), Payload: PayloadReportEdit},
	}}
}

func (c *Controller) statusReplyKeyboard(lang, shortID string) models.Keyboard {
	return models.Keyboard{{
		{Text: c.t(lang, "reply_button"), Payload: PrefixCaseReply + shortID},
	}}
}

// reviewerMenuKeyboard adds an organization switcher row when there is more than one
// organization; the active one is marked.
func (c *Controller) reviewerMenuKeyboard(lang string, orgs []models.Organization, activeOrgID string) models.Keyboard {
	kb := models.Keyboard{
		{
			{Text: c.t(lang, "rev_inbox"), Payload: PayloadRevInbox},
			{Text: c.t(lang, "rev_in_progress"), Payload: PayloadRevInProg},
		},
		{
			{Text: c.t(lang, "rev_closed"), Payload: PayloadRevClosed},
			{Text: c.t(lang, "rev_find"), Payload: PayloadRevFind},
		},
	}
	if len(orgs) > 1 {
		row := make([]models.Button, 0, len(orgs))
		for _, org := range orgs {
			text := org.Name
			if org.ID == activeOrgID {
				text = "▶ " + text
			}
			row = append(row, models.Button{Text: text, Payload: PrefixRevOrg + org.ID})
		}
		kb = append(kb, row)
	}
	return kb
}

func (c *Controller) caseActionsKeyboard(lang, shortID string) models.Keyboard {
	return models.Keyboard{
		{
			{Text: c.t(lang, "rev_take"), Payload: PrefixRevTake + shortID},
			{Text: c.t(lang, "rev_reply"), Payload: PrefixRevReply + shortID},
		},
		{
			{Text: c.t(lang, "rev_ask"), Payload: PrefixRevAsk + shortID},
			{Text: c.t(lang, "rev_close_conf"), Payload: PrefixRevCloseConf + shortID},
		},
		{
			{Text: c.t(lang, "rev_close_unconf"), Payload: PrefixRevCloseUnconf + shortID},
			{Text: c.t(lang, "rev_reject"), Payload: PrefixRevReject + shortID},
		},
	}
}

func chunkButtons(buttons []models.Button, size int) models.Keyboard {
	var kb models.Keyboard
	for len(buttons) > 0 {
		n := min(size, len(buttons))
		kb = append(kb, buttons[:n])
		buttons = buttons[n:]
	}
	return kb
}
