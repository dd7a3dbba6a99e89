// Package billing implements the subscription lifecycle and invoice ledger.
//
// The Service owns the four core operations: adding a subscription (with its
// first invoice, unless the subscription starts as a trial), partially
// modifying a subscription (including cancellation and pro-rated upgrade
// invoices), updating an invoice's payment status, and listing invoices with
// filtering, sorting, and pagination. Write operations run inside a single
// database transaction; a canceled subscription is terminal and rejects all
// further modification.
package billing
