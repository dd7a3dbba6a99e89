// Package customers provides read access to customer records.
//
// Customers are provisioned outside this service; the billing API only
// needs to look them up when creating subscriptions and to list them for
// the admin UI.
package customers
