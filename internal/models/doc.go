// Package models defines the core domain models for Rise.
//
// # Models
//
//   - Account: a monetary account (bank, mobile money, cash) owned by a user
//   - Transaction: an append-only journal entry for every balance-affecting event
//   - Budget: a category envelope funded from an account, driven by a
//     lifecycle state machine (draft -> allocated -> active -> completed,
//     with archived as a soft-disable)
//   - Sol: a savings pool, either a personal goal or a collaborative
//     rotating fund (tontine)
//   - User: a registered user account
//
// # Design Principles
//
//  1. **Derived values are never stored**: spent, percentage, remaining and
//     alert state for a budget, and progress for a personal sol, are computed
//     on read from persisted fields plus a fresh journal aggregate.
//  2. **Ownership scoping**: every entity belongs to exactly one user; all
//     lookups are scoped by (user, id) and cross-user access surfaces as
//     not-found, never as permission-denied.
//  3. **Avoid circular references**: relationships use ID strings instead of
//     pointers.
package models
