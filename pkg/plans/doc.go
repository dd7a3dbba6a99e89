// Package plans manages the subscription plan catalog.
//
// Plans carry a monthly price and a billing cycle, and can be deactivated
// rather than deleted so that existing subscriptions keep a valid reference.
// New subscriptions may only be created against active plans.
package plans
