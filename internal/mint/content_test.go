package mint

import (
	"strings"
	"testing"
)

func TestNonce(t *testing.T) {
	a := Nonce()
	b := Nonce()
	if len(a) != nonceLength {
		t.Errorf("nonce length = %d, want %d", len(a), nonceLength)
	}
	if a == b {
		t.Error("consecutive nonces should differ")
	}
}

func TestBuild_Inscription(t *testing.T) {
	b := NewBuilder("mbc-20", "CLAW", "100")
	b.pick = func(n int) int { return 0 }

	post := b.Build()

	if !strings.HasPrefix(post.Content, `{"p":"mbc-20","op":"mint","tick":"CLAW","amt":"100"}`) {
		t.Errorf("content missing inscription: %s", post.Content)
	}
	if !strings.Contains(post.Content, "mbc20.xyz") {
		t.Errorf("content missing indexer marker: %s", post.Content)
	}
	if !strings.HasPrefix(post.Title, "Mint CLAW ") {
		t.Errorf("unexpected title: %s", post.Title)
	}
	if post.Submolt != "mbc-20" {
		t.Errorf("unexpected submolt: %s", post.Submolt)
	}
	if post.IsDraft {
		t.Error("posts must not be drafts")
	}
}

func TestBuild_ProtocolFixedAcrossSubmolts(t *testing.T) {
	b := NewBuilder("crabs", "CLAW", "100")
	b.pick = func(n int) int { return 0 }

	post := b.Build()

	if !strings.HasPrefix(post.Content, `{"p":"mbc-20","op":"mint","tick":"CLAW","amt":"100"}`) {
		t.Errorf("protocol id must not follow the submolt: %s", post.Content)
	}
	if post.Submolt != "crabs" {
		t.Errorf("unexpected submolt: %s", post.Submolt)
	}
}

func TestBuild_AgentUpdateFluff(t *testing.T) {
	b := NewBuilder("mbc-20", "CLAW", "100")
	// First pick selects the numbered-update branch, second the number.
	calls := 0
	b.pick = func(n int) int {
		calls++
		if calls == 1 {
			return len(fluffOptions)
		}
		return 41
	}

	post := b.Build()
	if !strings.Contains(post.Content, "Agent update #42:") {
		t.Errorf("expected numbered update fluff: %s", post.Content)
	}
}

func TestBuild_ContentVaries(t *testing.T) {
	b := NewBuilder("mbc-20", "CLAW", "100")

	if b.Build().Content == b.Build().Content {
		t.Error("consecutive posts should differ")
	}
}
