// Package audit records account and catalog activity in the audit_logs
// table and pages it back for the vendor activity feed.
//
// Entries are written off the request path by the API server; a failed
// write is logged and never surfaces to the client.
package audit
