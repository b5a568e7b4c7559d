package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// OrgSpec is one organization entry of the catalog file.
type OrgSpec struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	ShortCode  string         `json:"shortCode"`
	IsActive   *bool          `json:"isActive"`
	Categories []CategorySpec `json:"categories"`
}

// Active treats a missing flag as active.
func (o OrgSpec) Active() bool {
	return o.IsActive == nil || *o.IsActive
}

// AccessCodeSpec is a plaintext code as configured; it is hashed before it reaches storage.
type AccessCodeSpec struct {
	OrgID     string     `json:"org_id"`
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// UserIDs accepts both numeric and string identities in JSON.
type UserIDs []string

func (u *UserIDs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, strings.TrimSpace(s))
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("whitelist entry %s: %w", string(item), err)
		}
		if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
			return fmt.Errorf("whitelist entry %s is not an integer", n.String())
		}
		out = append(out, n.String())
	}
	*u = out
	return nil
}

// Catalog is the reference data synced into storage at startup.
type Catalog struct {
	Orgs        []OrgSpec
	Whitelist   map[string]UserIDs
	AccessCodes []AccessCodeSpec
}

// LoadCatalog reads the three catalog files. A missing file yields an empty section.
func LoadCatalog(cfg Config) (Catalog, error) {
	var c Catalog
	if err := loadJSONFile(cfg.OrgsConfigPath, &c.Orgs); err != nil {
		return Catalog{}, err
	}
	if err := loadJSONFile(cfg.WhitelistPath, &c.Whitelist); err != nil {
		return Catalog{}, err
	}
	if err := loadJSONFile(cfg.AccessCodesPath, &c.AccessCodes); err != nil {
		return Catalog{}, err
	}
	if c.Whitelist == nil {
		c.Whitelist = map[string]UserIDs{}
	}
	return c, c.Validate()
}

// Validate checks ids are present and that codes and whitelist entries point at known orgs.
func (c Catalog) Validate() error {
	known := make(map[string]bool, len(c.Orgs))
	for i, org := range c.Orgs {
		if strings.TrimSpace(org.ID) == "" || strings.TrimSpace(org.Name) == "" {
			return fmt.Errorf("orgs[%d]: id and name are required", i)
		}
		if known[org.ID] {
			return fmt.Errorf("orgs[%d]: duplicate id %q", i, org.ID)
		}
		known[org.ID] = true
		for j, cat := range org.Categories {
			if cat.ID == "" || cat.Name == "" {
				return fmt.Errorf("orgs[%d].categories[%d]: id and name are required", i, j)
			}
		}
	}
	for orgID := range c.Whitelist {
		if !known[orgID] {
			return fmt.Errorf("whitelist references unknown org %q", orgID)
		}
	}
	for i, code := range c.AccessCodes {
		if !known[code.OrgID] {
			return fmt.Errorf("access_codes[%d]: unknown org %q", i, code.OrgID)
		}
		if strings.TrimSpace(code.Code) == "" {
			return fmt.Errorf("access_codes[%d]: empty code", i)
		}
	}
	return nil
}

// WhitelistFor returns the user ids whitelisted for orgID.
func (c Catalog) WhitelistFor(orgID string) []string {
	return c.Whitelist[orgID]
}

func loadJSONFile(path string, into any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
