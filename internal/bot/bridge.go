package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"trustline/backend/internal/models"

	"golang.org/x/sync/errgroup"
)

// bridgeToReporter delivers reviewer-side content to the reporter's channel, tagged as bridged.
func (c *Controller) bridgeToReporter(ctx context.Context, cs *models.Case, text string, attachments []models.Attachment) error {
	if cs.ReporterChannelRef == "" {
		return nil
	}
	return c.send(ctx, models.OutboundMessage{
		ChannelRef:  cs.ReporterChannelRef,
		Text:        text,
		Attachments: attachments,
		Origin:      models.OriginBridged,
	})
}

// relayToReviewers forwards a reporter follow-up to every reviewer of the case's
// organization that has a known channel.
func (c *Controller) relayToReviewers(ctx context.Context, cs *models.Case, text string, attachments []models.Attachment) error {
	refs, err := c.reviewerChannels(ctx, cs.OrgID)
	if err != nil {
		return err
	}
	body := c.loc.Sprintf(c.loc.DefaultLanguage(), "reporter_bridge", cs.ShortID, text)
	return c.fanOutSend(ctx, refs, models.OutboundMessage{
		Text:        body,
		Attachments: attachments,
		Origin:      models.OriginBridged,
	})
}

// notifyNewCase tells the organization's reviewers a case arrived.
func (c *Controller) notifyNewCase(ctx context.Context, cs *models.Case) error {
	refs, err := c.reviewerChannels(ctx, cs.OrgID)
	if err != nil {
		return err
	}
	orgName := cs.OrgID
	if org, err := c.catalog.Organization(ctx, cs.OrgID); err == nil {
		orgName = org.Name
	}
	return c.fanOutSend(ctx, refs, models.OutboundMessage{
		Text:   c.loc.Sprintf(c.loc.DefaultLanguage(), "new_case_notice", cs.ShortID, orgName),
		Origin: models.OriginSystem,
	})
}

func (c *Controller) reviewerChannels(ctx context.Context, orgID string) ([]string, error) {
	reviewers, err := c.reviewers.ListReviewersForOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list reviewers of %s: %w", orgID, err)
	}
	refs := make([]string, 0, len(reviewers))
	for _, r := range reviewers {
		if r.ChannelRef != nil && *r.ChannelRef != "" {
			refs = append(refs, *r.ChannelRef)
		}
	}
	return refs, nil
}

// fanOutSend sends msg to every channel concurrently. Each delivery is independent:
// one failure never stops the others, and all failures are joined in the result.
func (c *Controller) fanOutSend(ctx context.Context, refs []string, msg models.OutboundMessage) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(c.fanOut)
	for _, ref := range refs {
		ref := ref
		out := msg
		out.ChannelRef = ref
		g.Go(func() error {
			if err := c.send(ctx, out); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", ref, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}
