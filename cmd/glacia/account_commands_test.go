package main

import (
	"testing"
)

func TestAccountLoginShowLogout(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "account", "login", "ada", "ada@x.com")
	if err != nil {
		t.Fatalf("account login: %v", err)
	}
	requireContains(t, out, "Signed in as ada")
	requireContains(t, out, "free plan")

	out, _, err = runCLI(t, env, "account", "show")
	if err != nil {
		t.Fatalf("account show: %v", err)
	}
	requireContains(t, out, "ada@x.com")
	requireContains(t, out, "Generations left")

	out, _, err = runCLI(t, env, "account", "plan", "pro")
	if err != nil {
		t.Fatalf("account plan: %v", err)
	}
	requireContains(t, out, "Plan set to pro")

	out, _, err = runCLI(t, env, "account", "logout")
	if err != nil {
		t.Fatalf("account logout: %v", err)
	}
	requireContains(t, out, "Signed out")

	if _, _, err := runCLI(t, env, "account", "show"); err == nil {
		t.Fatal("expected account show to fail after logout")
	}
}

func TestAccountPlanRejectsUnknownPlan(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "account", "login", "ada", "ada@x.com"); err != nil {
		t.Fatalf("account login: %v", err)
	}
	if _, _, err := runCLI(t, env, "account", "plan", "platinum"); err == nil {
		t.Fatal("expected unknown plan to be rejected")
	}
}
