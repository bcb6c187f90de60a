package gm

import "testing"

func TestDisabledWhenNoPasswordConfigured(t *testing.T) {
	s := NewSessionSet("")
	if s.Enabled() {
		t.Fatal("expected SessionSet to be disabled with an empty password")
	}
	res := s.Authenticate("conn1", "anything")
	if res.Success || res.Message != "GM system not configured" {
		t.Fatalf("unexpected result for disabled GM: %+v", res)
	}
}

func TestAuthenticateRejectsWrongPassword(t *testing.T) {
	s := NewSessionSet("secret")
	res := s.Authenticate("conn1", "wrong")
	if res.Success {
		t.Fatal("expected authentication to fail with the wrong password")
	}
	if s.IsGM("conn1") {
		t.Fatal("a failed authentication must not grant membership")
	}
}

func TestAuthenticateGrantsMembershipOnCorrectPassword(t *testing.T) {
	s := NewSessionSet("secret")
	res := s.Authenticate("conn1", "secret")
	if !res.Success {
		t.Fatal("expected authentication to succeed with the correct password")
	}
	if !s.IsGM("conn1") {
		t.Fatal("expected membership to be granted after successful authentication")
	}
	if s.IsGM("conn2") {
		t.Fatal("membership must be scoped to the authenticated connection only")
	}
}

func TestCheckReflectsMembership(t *testing.T) {
	s := NewSessionSet("secret")
	if s.Check("conn1").IsGM {
		t.Fatal("expected unauthenticated connection to report isGm=false")
	}
	s.Authenticate("conn1", "secret")
	if !s.Check("conn1").IsGM {
		t.Fatal("expected authenticated connection to report isGm=true")
	}
}

func TestForgetRevokesMembership(t *testing.T) {
	s := NewSessionSet("secret")
	s.Authenticate("conn1", "secret")
	s.Forget("conn1")
	if s.IsGM("conn1") {
		t.Fatal("expected Forget to revoke GM membership")
	}
}
