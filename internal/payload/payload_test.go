package payload

import (
	"errors"
	"testing"

	"github.com/IshaanNene/ScrapeBoard/internal/sites"
	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

func bindingSite() *sites.SiteConfig {
	return &sites.SiteConfig{
		Host: "www.immo-example.de",
		Fields: map[string]sites.FieldBinding{
			"title":       {Field: "Title", Source: sites.SourceCopy, Type: sites.TypeText},
			"warm_rent":   {Field: "WarmRent", Source: sites.SourceCopy, Type: sites.TypeNumber},
			"deposit":     {Field: "Deposit", Source: sites.SourceCopy, Type: sites.TypeCurrency},
			"url_address": {Field: "Link", Source: sites.SourceURL, DuplicateCheck: true},
			"found_by":    {Field: "FoundBy", Source: sites.SourceActor},
		},
	}
}

func TestBuild(t *testing.T) {
	fields := types.RawFields{
		"title":     "Helle Altbauwohnung",
		"warm_rent": 1234.56,
		"deposit":   nil, // selector matched nothing
	}

	p, err := Build(bindingSite(), fields, "https://www.immo-example.de/expose/42", "finder@example.com")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if got := p["Title"]; got != "Helle Altbauwohnung" {
		t.Errorf("Title = %v", got)
	}
	if got := p["WarmRent"]; got != 1234.56 {
		t.Errorf("WarmRent = %v (%T)", got, got)
	}
	if got := p["Link"]; got != "https://www.immo-example.de/expose/42" {
		t.Errorf("Link = %v", got)
	}
	if got := p["FoundBy"]; got != "finder@example.com" {
		t.Errorf("FoundBy = %v", got)
	}

	// Null sources are omitted, never coerced to "" or 0.
	if _, present := p["Deposit"]; present {
		t.Error("Deposit should be absent for a null source")
	}
	if len(p) != 4 {
		t.Errorf("payload has %d fields, want 4: %v", len(p), p)
	}
}

func TestBuildOmitsMissingFields(t *testing.T) {
	// No extracted values at all: only url and actor bindings survive.
	p, err := Build(bindingSite(), types.NewRawFields(), "https://www.immo-example.de/expose/7", "finder@example.com")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(p) != 2 {
		t.Fatalf("payload has %d fields, want 2: %v", len(p), p)
	}
	if _, present := p["Title"]; present {
		t.Error("Title should be absent when never extracted")
	}
}

func TestBuildUnresolvedIdentity(t *testing.T) {
	fields := types.RawFields{"title": "Wohnung"}

	p, err := Build(bindingSite(), fields, "https://www.immo-example.de/expose/42", "")
	if !errors.Is(err, types.ErrIdentityUnresolved) {
		t.Fatalf("Build() error = %v, want ErrIdentityUnresolved", err)
	}
	// A hard failure produces no partial payload.
	if p != nil {
		t.Errorf("Build() payload = %v, want nil", p)
	}
}

func TestBuildWithoutActorBinding(t *testing.T) {
	site := &sites.SiteConfig{
		Host: "flats.example.org",
		Fields: map[string]sites.FieldBinding{
			"title":       {Field: "fld_title", Source: sites.SourceCopy, Type: sites.TypeText},
			"url_address": {Field: "fld_link", Source: sites.SourceURL},
		},
	}

	// No actor binding means an empty identity is fine.
	p, err := Build(site, types.RawFields{"title": "Flat"}, "https://flats.example.org/listing/1", "")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got := p["fld_link"]; got != "https://flats.example.org/listing/1" {
		t.Errorf("fld_link = %v", got)
	}
}
