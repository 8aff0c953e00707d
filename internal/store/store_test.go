package store

import (
	"testing"

	"github.com/cinehub/cinehub/internal/domain"
)

func TestSessionStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewSessionStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SaveCredentials(domain.Credentials{AccessToken: "T1", RefreshToken: "R1"}); err != nil {
		t.Fatalf("save credentials: %v", err)
	}
	if err := s.SaveProfile(&domain.UserProfile{ID: 1, Email: "a@b.com", DisplayName: "A"}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = NewSessionStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	access, _ := s.AccessToken()
	refresh, _ := s.RefreshToken()
	if access != "T1" || refresh != "R1" {
		t.Fatalf("unexpected tokens access=%q refresh=%q", access, refresh)
	}
	profile, err := s.Profile()
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile == nil || profile.Email != "a@b.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestSessionStoreSaveAccessTokenKeepsRefresh(t *testing.T) {
	s, err := NewSessionStore("")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SaveCredentials(domain.Credentials{AccessToken: "T1", RefreshToken: "R1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveAccessToken("T2"); err != nil {
		t.Fatalf("save access: %v", err)
	}

	access, _ := s.AccessToken()
	refresh, _ := s.RefreshToken()
	if access != "T2" || refresh != "R1" {
		t.Fatalf("unexpected tokens access=%q refresh=%q", access, refresh)
	}
}

func TestSessionStoreClearWipesAllSlots(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSessionStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.SaveCredentials(domain.Credentials{AccessToken: "T1", RefreshToken: "R1"})
	_ = s.SaveProfile(&domain.UserProfile{ID: 1, Email: "a@b.com"})

	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	// Clearing twice is safe
	if err := s.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	s.Close()

	s, err = NewSessionStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	access, _ := s.AccessToken()
	refresh, _ := s.RefreshToken()
	profile, _ := s.Profile()
	if access != "" || refresh != "" || profile != nil {
		t.Fatalf("expected empty slots got access=%q refresh=%q profile=%+v", access, refresh, profile)
	}
}

func TestSessionStoreRejectsNilProfile(t *testing.T) {
	s, _ := NewSessionStore("")
	if err := s.SaveProfile(nil); err == nil {
		t.Fatal("expected error for nil profile")
	}
}
