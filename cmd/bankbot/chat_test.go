package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestChatCmd_AnonymousSession(t *testing.T) {
	cfgPath := writeTestConfig(t)

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader("hello\nexit\n"))
	cmd.SetArgs([]string{"chat", "--config", cfgPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Anonymous session") {
		t.Errorf("output missing anonymous notice: %s", out)
	}
	if !strings.Contains(out, "Welcome to Bank of Trust") {
		t.Errorf("output missing greeting reply: %s", out)
	}
	if !strings.Contains(out, "Goodbye.") {
		t.Errorf("output missing exit message: %s", out)
	}
}

func TestChatCmd_LoginBadPassword(t *testing.T) {
	cfgPath := writeTestConfig(t)

	// Seed the demo users so the login has something to check against.
	seed := newRootCmd()
	seed.SetOut(new(bytes.Buffer))
	seed.SetArgs([]string{"db", "seed", "--config", cfgPath})
	if err := seed.Execute(); err != nil {
		t.Fatalf("db seed failed: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader("wrongpassword\n"))
	cmd.SetArgs([]string{"chat", "--config", cfgPath, "--email", "alice@example.com"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected login failure")
	}
}

func TestChatCmd_LoginAndBalance(t *testing.T) {
	cfgPath := writeTestConfig(t)

	seed := newRootCmd()
	seed.SetOut(new(bytes.Buffer))
	seed.SetArgs([]string{"db", "seed", "--config", cfgPath})
	if err := seed.Execute(); err != nil {
		t.Fatalf("db seed failed: %v", err)
	}

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader("alice@123\ncheck balance\n100001\nexit\n"))
	cmd.SetArgs([]string{"chat", "--config", cfgPath, "--email", "alice@example.com"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Logged in as Alice Fernandes") {
		t.Errorf("output missing login confirmation: %s", out)
	}
	if !strings.Contains(out, "₹58,000") {
		t.Errorf("output missing balance: %s", out)
	}
}
