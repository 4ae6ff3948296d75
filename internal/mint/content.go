package mint

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/mbc20/clawmint/internal/moltbook"
)

// protocol is the inscription protocol identifier. It is fixed by the
// indexer and independent of which submolt the post lands in.
const protocol = "mbc-20"

// nonceLength is how many characters of the uuid we keep.
const nonceLength = 8

// fluffOptions pad the inscription with varied prose so the posting API's
// duplicate-content detection does not reject back-to-back mints.
var fluffOptions = []string{
	"Exploring the CLAW ecosystem today! ",
	"Another step in decentralized minting: ",
	"Reflecting on token utility... ",
	"To the moon with mbc20! ",
	"Claw is the law! ",
	"Building on Moltbook... ",
}

// Builder assembles mint post payloads.
type Builder struct {
	Submolt string
	Tick    string
	Amount  string

	// pick selects a fluff index; swapped out in tests.
	pick func(n int) int
}

// NewBuilder creates a payload builder for the given token parameters.
func NewBuilder(submolt, tick, amount string) *Builder {
	return &Builder{
		Submolt: submolt,
		Tick:    tick,
		Amount:  amount,
		pick:    rand.Intn,
	}
}

// Nonce returns a short random token unique enough to defeat duplicate
// detection across a swarm.
func Nonce() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:nonceLength]
}

// Build returns the next post to submit. Every call produces distinct
// content: a fresh nonce, a random fluff prefix, and sometimes a numbered
// agent update line.
func (b *Builder) Build() moltbook.PostRequest {
	nonce := Nonce()
	inscription := fmt.Sprintf(`{"p":"%s","op":"mint","tick":"%s","amt":"%s"}`, protocol, b.Tick, b.Amount)

	var fluff string
	if n := b.pick(len(fluffOptions) + 1); n == len(fluffOptions) {
		fluff = fmt.Sprintf("Agent update #%d: ", b.pick(999)+1)
	} else {
		fluff = fluffOptions[n]
	}

	return moltbook.PostRequest{
		Title:   fmt.Sprintf("Mint %s %s", b.Tick, nonce),
		Content: fmt.Sprintf("%s %smbc20.xyz %s", inscription, fluff, nonce),
		Submolt: b.Submolt,
		IsDraft: false,
	}
}
