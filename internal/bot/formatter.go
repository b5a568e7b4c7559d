package bot

import (
	"fmt"
	"strings"

	"trustline/backend/internal/analysis"
	"trustline/backend/internal/config"
	"trustline/backend/internal/models"
)

func sanitizeText(s string) string {
	return analysis.Sanitize(s)
}

func (c *Controller) statusLabel(lang string, st models.CaseStatus) string {
	key := "status." + string(st)
	if label := c.t(lang, key); label != key {
		return label
	}
	return string(st)
}

// reportSummary renders the confirmation card shown before submit.
func (c *Controller) reportSummary(lang, orgName, categoryName string, d *models.ReportDraft) string {
	contact := c.t(lang, "no")
	switch {
	case d.ContactNote != nil && *d.ContactNote != "":
		contact = *d.ContactNote
	case d.ContactOptIn:
		contact = c.t(lang, "yes")
	}

	lines := []string{
		c.t(lang, "summary_title"),
		fmt.Sprintf("%s: %s", c.t(lang, "summary_org"), orgName),
		fmt.Sprintf("%s: %s", c.t(lang, "summary_category"), categoryName),
		fmt.Sprintf("%s: %s", c.t(lang, "summary_text"), analysis.Truncate(d.Text, config.SummaryTextLimit)),
		fmt.Sprintf("%s: %d", c.t(lang, "summary_attachments"), len(d.Attachments)),
		fmt.Sprintf("%s: %s", c.t(lang, "summary_contact"), contact),
	}
	return strings.Join(lines, "\n")
}

// caseCard renders a case for reviewers.
func (c *Controller) caseCard(lang string, cs *models.Case, orgName, categoryName string) string {
	lines := []string{
		fmt.Sprintf("[%s] %s: %s", cs.ShortID, c.t(lang, "card_org"), orgName),
		fmt.Sprintf("%s: %s", c.t(lang, "card_category"), categoryName),
		fmt.Sprintf("%s: %s", c.t(lang, "card_status"), c.statusLabel(lang, cs.Status)),
		fmt.Sprintf("%s: %s", c.t(lang, "card_text"), analysis.Truncate(cs.Text, config.CaseSummaryTextLimit)),
		fmt.Sprintf("%s: %d", c.t(lang, "card_attachments"), len(cs.Attachments)),
		fmt.Sprintf("%s: %s", c.t(lang, "card_contact"), c.contactLabel(lang, cs)),
	}
	return strings.Join(lines, "\n")
}

func (c *Controller) contactLabel(lang string, cs *models.Case) string {
	switch {
	case !cs.ContactOptIn:
		return c.t(lang, "no")
	case cs.ContactEmail != nil && *cs.ContactEmail != "":
		return *cs.ContactEmail
	case cs.ContactPhone != nil && *cs.ContactPhone != "":
		return *cs.ContactPhone
	default:
		return c.t(lang, "yes")
	}
}

// statusMessage returns the status reply and, when the case waits on the reporter,
// the pending question text. question is empty otherwise.
func (c *Controller) statusMessage(lang string, cs *models.Case) (status, question string) {
	status = c.loc.Sprintf(lang, "status_line", cs.ShortID, c.statusLabel(lang, cs.Status)) + "\n" +
		c.loc.Sprintf(lang, "status_updated", cs.UpdatedAt.Format(config.DateTimeLayout))
	if cs.PendingQuestion != nil && *cs.PendingQuestion != "" {
		question = c.loc.Sprintf(lang, "pending_question", *cs.PendingQuestion) + "\n" + c.t(lang, "pending_question_notice")
	}
	return status, question
}
