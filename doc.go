// Package tasktrack implements the authentication and authorization core
// for a multi-tenant task tracking backend: stateless JWT issuance and
// validation, credential verification against the user store, per-request
// identity resolution, and a path-pattern access policy, plus the task and
// comment domain built on top of it.
package tasktrack
