package store

import (
	"fmt"
	"os"

	"finroots_crm_backend/internal/crm/domain"
	"finroots_crm_backend/platform/geo"
	"finroots_crm_backend/platform/phone"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML fixture the store is loaded from on boot.
type SeedFile struct {
	Members     []domain.Member           `yaml:"members"`
	Leads       []domain.Lead             `yaml:"leads"`
	Tasks       []domain.Task             `yaml:"tasks"`
	Users       []domain.User             `yaml:"users"`
	Branches    []domain.Branch           `yaml:"branches"`
	LeadSources []domain.LeadSourceMaster `yaml:"leadSources"`
}

// LoadSeed reads the fixture at path and populates the store. Member mobile
// numbers are normalized to E.164 and digipins without explicit coordinates
// are resolved to their cell centers.
func LoadSeed(s *Store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	return Populate(s, seed)
}

// Populate fills the store from an in-memory seed. Exposed separately so
// tests can seed without a fixture file.
func Populate(s *Store, seed SeedFile) error {
	for _, b := range seed.Branches {
		s.PutBranch(b)
	}
	for _, u := range seed.Users {
		s.PutUser(u)
	}
	s.SetLeadSources(seed.LeadSources)

	for _, m := range seed.Members {
		m.Mobile = phone.NormalizeE164(m.Mobile)
		if m.Lat == nil && m.Lng == nil && m.Digipin != "" {
			lat, lng, err := geo.DecodeDigipin(m.Digipin)
			if err != nil {
				return fmt.Errorf("member %s: resolve digipin %q: %w", m.MemberCode, m.Digipin, err)
			}
			m.Lat, m.Lng = &lat, &lng
		}
		s.PutMember(m)
	}

	for _, l := range seed.Leads {
		l.Mobile = phone.NormalizeE164(l.Mobile)
		s.PutLead(l)
	}

	for _, t := range seed.Tasks {
		if t.MemberID != nil && t.LeadID != nil {
			return fmt.Errorf("task %s: memberId and leadId are mutually exclusive", t.ID)
		}
		s.CreateTask(t)
	}

	return nil
}
