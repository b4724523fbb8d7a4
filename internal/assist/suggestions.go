// ABOUTME: Starter suggestion prompts shown on an empty conversation
// ABOUTME: Fixed prompt pool with random selection for the welcome view

package assist

import "math/rand/v2"

// suggestionPrompts is the pool of starter questions offered on an empty
// conversation.
var suggestionPrompts = []string{
	"Show me today's sales invoices",
	"What are the pending purchase orders?",
	"Find service protocol for serial number OCU-00001",
	"List overdue customer invoices",
	"Show stock levels for my top items",
	"What's the total sales this month?",
	"Show recent delivery notes",
	"List all employees in the Sales department",
	"Find customer orders for ABC Company",
	"Show payment entries from last week",
}

// suggestionCount is how many prompts the welcome view shows at once.
const suggestionCount = 4

// SuggestedPrompts returns a random selection of starter prompts.
func SuggestedPrompts() []string {
	picked := append([]string(nil), suggestionPrompts...)
	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:suggestionCount]
}
