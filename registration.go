package clawmint

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mbc20/clawmint/internal/moltbook"
	"github.com/mbc20/clawmint/internal/roster"
)

// RegisterPending walks the roster and registers every entry that has no
// usable API key yet. Newly issued keys are written back to the roster file
// immediately so a crash mid-pass loses nothing. Claim instructions are
// printed for the operator; the swarm keeps running, but unclaimed keys will
// fail to post until the claim flow is completed by hand.
func RegisterPending(ctx context.Context, client *moltbook.Client, r *roster.Roster) {
	pending := r.Pending()
	if len(pending) == 0 {
		return
	}

	log.Printf("[Registration] %d agent(s) need registration", len(pending))

	for _, a := range pending {
		reg, err := client.Register(ctx, a.Name, fmt.Sprintf("AI Agent %s for CLAW minting", a.Name))
		if err != nil {
			var apiErr *moltbook.APIError
			if errors.As(err, &apiErr) && apiErr.Code == moltbook.ErrorCodeNameTaken {
				log.Printf("[Registration] %s: name already taken, pick another name in the roster", a.Name)
			} else if errors.As(err, &apiErr) && apiErr.Code == moltbook.ErrorCodeRateLimit {
				log.Printf("[Registration] %s: platform rate limited registration, retry in a few minutes", a.Name)
			} else {
				log.Printf("[Registration] %s: registration failed: %v", a.Name, err)
			}
			continue
		}

		r.SetKey(a.Name, reg.APIKey)
		if err := r.Save(); err != nil {
			log.Printf("[Registration] failed to persist key for %s: %v", a.Name, err)
		}

		PrintClaimInstructions(a.Name, reg)
	}
}

// PrintClaimInstructions tells the operator how to activate a freshly
// registered agent. Without the claim step the API key cannot post.
func PrintClaimInstructions(name string, reg *moltbook.Registration) {
	fmt.Printf("Registered %s!\n", name)
	fmt.Printf("  API Key: %s\n", reg.APIKey)
	if reg.VerificationCode != "" {
		fmt.Printf("  Verification Code: %s\n", reg.VerificationCode)
	}
	if reg.ClaimURL == "" {
		fmt.Println("  No claim_url returned; the agent may already be active.")
		return
	}

	fmt.Printf("  CLAIM URL (must be visited to activate): %s\n", reg.ClaimURL)
	fmt.Println()
	fmt.Println("  Activation steps (manual):")
	fmt.Println("  1. Open the claim URL above")
	fmt.Printf("  2. Post the verification code on X, e.g. 'Verifying my Moltbook agent: %s @moltbook'\n", reg.VerificationCode)
	fmt.Println("  3. Paste the link to your X post back into the claim page")
	fmt.Println("  4. Posting works once verification goes through (minutes to hours)")
	fmt.Println()
	fmt.Println("  IMPORTANT: save the API key somewhere safe; it cannot be recovered.")
}
