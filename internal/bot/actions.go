package bot

import "strings"

// Callback payloads carried by inline buttons.
const (
	PayloadMenuReport   = "MENU_REPORT"
	PayloadMenuStatus   = "MENU_STATUS"
	PayloadMenuReviewer = "MENU_REVIEWER"
	PayloadMenuHelp     = "MENU_HELP"

	PayloadContactYes   = "CONTACT_YES"
	PayloadContactNo    = "CONTACT_NO"
	PayloadReportSubmit = "REPORT_SUBMIT"
	PayloadReportEdit   = "REPORT_EDIT"

	PayloadRevInbox  = "REV_INBOX"
	PayloadRevInProg = "REV_INPROG"
	PayloadRevClosed = "REV_CLOSED"
	PayloadRevFind   = "REV_FIND"
)

// Prefixed payloads: PREFIX + value.
const (
	PrefixOrg       = "ORG:"
	PrefixCategory  = "CAT:"
	PrefixCaseReply = "CASE_REPLY:"
	PrefixRevOrg    = "REV_ORG:"

	PrefixRevTake        = "REV_TAKE:"
	PrefixRevReply       = "REV_REPLY:"
	PrefixRevAsk         = "REV_ASK:"
	PrefixRevCloseConf   = "REV_CLOSE_CONF:"
	PrefixRevCloseUnconf = "REV_CLOSE_UNCONF:"
	PrefixRevReject      = "REV_REJECT:"
)

var caseActionPrefixes = []string{
	PrefixRevTake,
	PrefixRevReply,
	PrefixRevAsk,
	PrefixRevCloseConf,
	PrefixRevCloseUnconf,
	PrefixRevReject,
}

// splitCaseAction matches payload against the reviewer case actions.
func splitCaseAction(payload string) (prefix, shortID string, ok bool) {
	for _, p := range caseActionPrefixes {
		if v, found := strings.CutPrefix(payload, p); found {
			return p, v, true
		}
	}
	return "", "", false
}
