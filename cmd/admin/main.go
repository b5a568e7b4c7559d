package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"trustline/backend/internal/config"
	"trustline/backend/internal/models"
	"trustline/backend/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  show-case <SHORT_ID>           case details, transcript and audit trail
  list-reviewers <ORG_ID>        reviewers of an organization
  grant-reviewer <USER_ID> <ORG_ID>
  sync-catalog                   re-sync organizations, categories and access codes
  purge-codes                    delete expired access codes`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.LoadAdmin()
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "show-case":
		requireArgs(3, "admin show-case <SHORT_ID>")
		if err := showCase(ctx, storageSvc, strings.ToUpper(os.Args[2])); err != nil {
			log.Fatalf("Error showing case: %v", err)
		}
	case "list-reviewers":
		requireArgs(3, "admin list-reviewers <ORG_ID>")
		if err := listReviewers(ctx, storageSvc, os.Args[2]); err != nil {
			log.Fatalf("Error listing reviewers: %v", err)
		}
	case "grant-reviewer":
		requireArgs(4, "admin grant-reviewer <USER_ID> <ORG_ID>")
		userID, orgID := os.Args[2], os.Args[3]
		if _, err := storageSvc.Organization(ctx, orgID); err != nil {
			log.Fatalf("Unknown organization %s: %v", orgID, err)
		}
		// канал з'явиться, коли рецензент відкриє меню
		if err := storageSvc.UpsertReviewer(ctx, userID, orgID, ""); err != nil {
			log.Fatalf("Error granting reviewer: %v", err)
		}
		fmt.Printf("User %s may now review %s.\n", userID, orgID)
	case "sync-catalog":
		if err := storageSvc.Migrate(); err != nil {
			log.Fatalf("Error migrating: %v", err)
		}
		catalog, err := config.LoadCatalog(cfg)
		if err != nil {
			log.Fatalf("Error loading catalog: %v", err)
		}
		if err := storageSvc.SyncCatalog(ctx, catalog); err != nil {
			log.Fatalf("Error syncing catalog: %v", err)
		}
		fmt.Printf("Catalog synced: %d organizations.\n", len(catalog.Orgs))
	case "purge-codes":
		n, err := storageSvc.PurgeExpiredCodes(ctx)
		if err != nil {
			log.Fatalf("Error purging codes: %v", err)
		}
		fmt.Printf("%d expired access codes deleted.\n", n)
	default:
		fmt.Printf("Unknown command %q\n\n%s\n", command, usage)
		os.Exit(1)
	}
}

func requireArgs(n int, hint string) {
	if len(os.Args) != n {
		fmt.Println("Usage:", hint)
		os.Exit(1)
	}
}

func showCase(ctx context.Context, s *storage.Service, shortID string) error {
	c, err := s.FindCaseByShortID(ctx, shortID)
	if err != nil {
		return err
	}
	fmt.Printf("Case %s (%s)\n", c.ShortID, c.ID)
	fmt.Printf("  org:       %s\n", c.OrgID)
	fmt.Printf("  category:  %s\n", c.CategoryID)
	fmt.Printf("  status:    %s\n", c.Status)
	fmt.Printf("  reporter:  %s via %s\n", c.ReporterUserID, c.ReporterChannelRef)
	if c.AssigneeUserID != nil {
		fmt.Printf("  assignee:  %s\n", *c.AssigneeUserID)
	}
	if c.PendingQuestion != nil {
		fmt.Printf("  pending:   %s\n", *c.PendingQuestion)
	}
	fmt.Printf("  created:   %s\n  updated:   %s\n", c.CreatedAt.Format(config.DateTimeLayout), c.UpdatedAt.Format(config.DateTimeLayout))
	fmt.Printf("\n%s\n", c.Text)

	msgs, err := s.CaseMessages(ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Println("\nTranscript:")
	for _, m := range msgs {
		fmt.Printf("  [%s] %s: %s", m.CreatedAt.Format(config.DateTimeLayout), m.SenderType, m.Text)
		if len(m.Attachments) > 0 {
			fmt.Printf(" (+%d attachments)", len(m.Attachments))
		}
		fmt.Println()
	}

	trail, err := s.AuditTrail(ctx, c.ID)
	if err != nil {
		return err
	}
	fmt.Println("\nAudit:")
	for _, e := range trail {
		actor := "-"
		if e.ActorUserID != nil {
			actor = *e.ActorUserID
		}
		fmt.Printf("  [%s] %s by %s %v\n", e.CreatedAt.Format(config.DateTimeLayout), e.Action, actor, map[string]any(e.Meta))
	}
	return nil
}

func listReviewers(ctx context.Context, s *storage.Service, orgID string) error {
	reviewers, err := s.ListReviewersForOrg(ctx, orgID)
	if err != nil {
		return err
	}
	if len(reviewers) == 0 {
		fmt.Printf("No reviewers for %s.\n", orgID)
		return nil
	}
	for _, r := range reviewers {
		fmt.Printf("%s\tverified %s\tchannel %s\n", r.UserID, r.VerifiedAt.Format(config.DateTimeLayout), channelOf(r))
	}
	return nil
}

func channelOf(r models.Reviewer) string {
	if r.ChannelRef == nil || *r.ChannelRef == "" {
		return "-"
	}
	return *r.ChannelRef
}
